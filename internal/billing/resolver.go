package billing

// Resolution is the outcome of reconciling a bill's workflow status with its
// payment status: the corrected workflow status, the statuses an operator may
// still pick, and whether the choice is locked (system-derived).
type Resolution struct {
	WorkflowStatus WorkflowStatus   `json:"workflow_status"`
	Selectable     []WorkflowStatus `json:"selectable_workflow_statuses"`
	Locked         bool             `json:"locked"`
}

// ResolveConsistency computes the legal workflow status for a payment status.
// It is pure and total over the full status space; the same rules back both
// the update path and the form-preview endpoint, so there is a single source
// of truth for the pairing rules.
//
// Precedence:
//  1. PAID forces COMPLETED and locks the selection.
//  2. PARTIALLY_PAID locks the selection; DRAFT, COMPLETED, CANCELLED and
//     OVERDUE snap to ISSUED, while ISSUED and SENT are preserved.
//  3. UNPAID and REFUNDED leave the selection open, except COMPLETED is
//     unreachable by hand; a stale COMPLETED is corrected back to ISSUED.
func ResolveConsistency(workflow WorkflowStatus, payment PaymentStatus) Resolution {
	switch payment {
	case PaymentPaid:
		return Resolution{WorkflowStatus: WorkflowCompleted, Locked: true}

	case PaymentPartiallyPaid:
		next := workflow
		switch workflow {
		case WorkflowDraft, WorkflowCompleted, WorkflowCancelled, WorkflowOverdue:
			next = WorkflowIssued
		}
		return Resolution{WorkflowStatus: next, Locked: true}

	default: // UNPAID, REFUNDED
		next := workflow
		if workflow == WorkflowCompleted {
			next = WorkflowIssued
		}
		selectable := make([]WorkflowStatus, 0, len(WorkflowStatuses)-1)
		for _, s := range WorkflowStatuses {
			if s != WorkflowCompleted {
				selectable = append(selectable, s)
			}
		}
		return Resolution{WorkflowStatus: next, Selectable: selectable}
	}
}

// Allows reports whether the operator may set the given workflow status.
// When the selection is locked only the resolved value itself passes, so a
// no-op re-submit of the system-derived status is not treated as an error.
func (r Resolution) Allows(s WorkflowStatus) bool {
	if r.Locked {
		return s == r.WorkflowStatus
	}
	for _, candidate := range r.Selectable {
		if candidate == s {
			return true
		}
	}
	return false
}
