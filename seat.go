package evlayer

// Seat is a reference-counted grouping of devices identified by a
// (physical-name, logical-name) pair, mirroring the ID_SEAT/WL_SEAT
// device properties from the discovery collaborator.
type Seat struct {
	refs int

	Physical string
	Logical  string

	devices []*Device
	ctx     *Context
}

func newSeat(ctx *Context, physical, logical string) *Seat {
	return &Seat{refs: 1, Physical: physical, Logical: logical, ctx: ctx}
}

// Ref increments the seat's reference count.
func (s *Seat) Ref() {
	s.refs++
}

// Unref decrements the seat's reference count, destroying it once it
// reaches zero. A seat may outlive the context transiently through
// event references even after its last device is removed.
func (s *Seat) Unref() {
	s.refs--
	if s.refs <= 0 {
		s.devices = nil
	}
}

// Devices returns the seat's current device list.
func (s *Seat) Devices() []*Device {
	return s.devices
}

func (s *Seat) addDevice(d *Device) {
	s.devices = append(s.devices, d)
}

func (s *Seat) removeDevice(d *Device) {
	var i int

	for i = range s.devices {
		if s.devices[i] == d {
			s.devices = append(s.devices[:i], s.devices[i+1:]...)
			return
		}
	}
}

// findSeat returns the seat matching (physical, logical) within ctx,
// creating and registering a new one if none matches.
func (ctx *Context) findSeat(physical, logical string) *Seat {
	var seat *Seat

	for _, seat = range ctx.seats {
		if seat.Physical == physical && seat.Logical == logical {
			return seat
		}
	}

	seat = newSeat(ctx, physical, logical)
	ctx.seats = append(ctx.seats, seat)

	return seat
}
