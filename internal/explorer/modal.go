package explorer

// Choice is the button a user pressed to close a modal.
type Choice string

const (
	ChoiceOK     Choice = "ok"
	ChoiceCancel Choice = "cancel"
)

// Modal is a dialog handed to the owner's ShowModal capability. The
// owner renders it and calls Complete exactly once with the user's
// answer; Complete always ends by hiding the modal.
type Modal interface {
	Complete(choice Choice, input string)
	isModal()
}

// ConfirmModal asks a yes/no question.
type ConfirmModal struct {
	Message    string
	Supporting string
	complete   func(Choice, string)
}

// RenameModal asks for a new name, prefilled with the current one.
type RenameModal struct {
	Message     string
	InitialName string
	complete    func(Choice, string)
}

func (m *ConfirmModal) Complete(choice Choice, input string) { m.complete(choice, input) }
func (m *RenameModal) Complete(choice Choice, input string)  { m.complete(choice, input) }

func (*ConfirmModal) isModal() {}
func (*RenameModal) isModal()  {}
