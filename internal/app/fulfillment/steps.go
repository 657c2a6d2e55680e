package fulfillment

import "cloud-restaurant/internal/domain"

// StepKind tags how the interpreter executes a step.
type StepKind string

const (
	// StepTransactional commits a local effect together with the cursor
	// advance in one conditional store operation.
	StepTransactional StepKind = "transactional"

	// StepInvoke calls a synchronous external collaborator with bounded
	// retries before committing the advance.
	StepInvoke StepKind = "invoke"

	// StepSuspend persists a pending task and parks the execution until
	// an external callback resolves the task.
	StepSuspend StepKind = "suspend"
)

// StepDescriptor declares one entry of the fixed workflow. The chain is
// data: adding a delivery stage is a new descriptor, not new code.
type StepDescriptor struct {
	Name string
	Kind StepKind

	// PutOrder marks the step that writes the order record itself.
	PutOrder bool

	// Status, when set, advances the order's status projection in the
	// same commit as the cursor.
	Status *domain.Status

	// TaskKind names the continuation persisted by a Suspend step.
	TaskKind domain.TaskKind
}

// Steps is the fulfillment workflow: persist the order, charge it, mark
// it paid, hand it to the kitchen, and complete it once preparation is
// confirmed.
func Steps() []StepDescriptor {
	return []StepDescriptor{
		{Name: "persist-order", Kind: StepTransactional, PutOrder: true},
		{Name: "process-payment", Kind: StepInvoke},
		{Name: "mark-paid", Kind: StepTransactional, Status: statusPtr(domain.StatusPaid)},
		{Name: "await-preparation", Kind: StepSuspend, Status: statusPtr(domain.StatusPreparing), TaskKind: domain.TaskKindPreparation},
		{Name: "complete-order", Kind: StepTransactional, Status: statusPtr(domain.StatusReadyForPickup)},
	}
}

func statusPtr(s domain.Status) *domain.Status {
	return &s
}
