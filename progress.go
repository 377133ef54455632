package mosaic

import "fmt"

type ProgressKind int

const (
	ProgressBeginAll ProgressKind = iota
	ProgressBegin
	ProgressStep
	ProgressEnd
	ProgressEndAll
)

func (k ProgressKind) String() string {
	switch k {
	case ProgressBeginAll:
		return "BeginAll"
	case ProgressBegin:
		return "Begin"
	case ProgressStep:
		return "Step"
	case ProgressEnd:
		return "End"
	case ProgressEndAll:
		return "EndAll"
	}
	return fmt.Sprintf("ProgressKind(%d)", int(k))
}

// Progress is an event emitted while rendering. BeginAll carries the total
// number of chunks in Count, Begin the number of chunks of Region.
type Progress struct {
	Kind   ProgressKind
	Region RegionCoord
	Count  int
}

func (p Progress) String() string {
	switch p.Kind {
	case ProgressBeginAll:
		return fmt.Sprintf("BeginAll(%d)", p.Count)
	case ProgressEndAll:
		return "EndAll"
	case ProgressBegin:
		return fmt.Sprintf("Begin(%v, %d)", p.Region, p.Count)
	}
	return fmt.Sprintf("%v(%v)", p.Kind, p.Region)
}

// progressSender forwards events to an optional channel.
type progressSender chan<- Progress

func (s progressSender) send(p Progress) {
	if s != nil {
		s <- p
	}
}

func (s progressSender) close() {
	if s != nil {
		close(s)
	}
}
