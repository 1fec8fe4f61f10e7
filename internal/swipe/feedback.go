package swipe

// ImpactStyle is the intensity of a haptic pulse.
type ImpactStyle string

const (
	ImpactLight  ImpactStyle = "light"
	ImpactMedium ImpactStyle = "medium"
	ImpactHeavy  ImpactStyle = "heavy"
	ImpactSoft   ImpactStyle = "soft"
)

// NotificationType tags a pulse with the outcome of an operation.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
)

// Feedback receives haptic or visual pulses. Calls are fire-and-forget.
type Feedback interface {
	Impact(style ImpactStyle)
	Notify(kind NotificationType)
}

// NopFeedback discards every pulse.
type NopFeedback struct{}

func (NopFeedback) Impact(ImpactStyle)      {}
func (NopFeedback) Notify(NotificationType) {}

// safeFeedback shields the gesture engine from a misbehaving sink.
type safeFeedback struct {
	sink Feedback
}

func newSafeFeedback(sink Feedback) Feedback {
	if sink == nil {
		return NopFeedback{}
	}
	if s, ok := sink.(safeFeedback); ok {
		return s
	}
	return safeFeedback{sink: sink}
}

func (f safeFeedback) Impact(style ImpactStyle) {
	defer func() { _ = recover() }()
	f.sink.Impact(style)
}

func (f safeFeedback) Notify(kind NotificationType) {
	defer func() { _ = recover() }()
	f.sink.Notify(kind)
}
