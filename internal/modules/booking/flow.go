package booking

type Step string

const (
	StepSelectItem     Step = "select_item"
	StepDateAndGuests  Step = "date_and_guests"
	StepSelectDate     Step = "select_date"
	StepSelectTime     Step = "select_time"
	StepContactDetails Step = "contact_details"
	StepPayment        Step = "payment"
	StepPaymentFailed  Step = "payment_failed"
	StepConfirmation   Step = "confirmation"
)

type Flow string

const (
	FlowStandard Flow = "standard"
	FlowExtended Flow = "extended"
)

var flows = map[Flow][]Step{
	FlowStandard: {StepDateAndGuests, StepContactDetails, StepPayment, StepConfirmation},
	FlowExtended: {StepSelectItem, StepSelectDate, StepSelectTime, StepContactDetails, StepPayment, StepConfirmation},
}

// ParseFlow maps an empty name to the standard flow.
func ParseFlow(name string) (Flow, bool) {
	if name == "" {
		return FlowStandard, true
	}
	f := Flow(name)
	_, ok := flows[f]
	return f, ok
}

func (f Flow) Steps() []Step {
	return append([]Step(nil), flows[f]...)
}

func (f Flow) Initial() Step { return flows[f][0] }

// Number is the 1-based position of s in the flow. PaymentFailed shares the
// payment step's number.
func (f Flow) Number(s Step) int {
	if s == StepPaymentFailed {
		s = StepPayment
	}
	for i, st := range flows[f] {
		if st == s {
			return i + 1
		}
	}
	return 0
}

func (f Flow) next(s Step) (Step, bool) {
	steps := flows[f]
	n := f.Number(s)
	if n == 0 || n >= len(steps) {
		return "", false
	}
	return steps[n], true
}

func (f Flow) prev(s Step) (Step, bool) {
	if s == StepPaymentFailed {
		return StepPayment, true
	}
	n := f.Number(s)
	if n <= 1 {
		return "", false
	}
	return flows[f][n-2], true
}
