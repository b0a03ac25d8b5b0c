package workflow_test

import (
	"context"
	"fmt"

	"github.com/LerianStudio/lib-pawn/pawn/authz"
	"github.com/LerianStudio/lib-pawn/pawn/backend"
	"github.com/LerianStudio/lib-pawn/pawn/money"
	"github.com/LerianStudio/lib-pawn/pawn/reconcile"
	"github.com/LerianStudio/lib-pawn/pawn/ticket"
	"github.com/LerianStudio/lib-pawn/pawn/workflow"
)

func ExampleMachine() {
	ctx := context.Background()

	mem := backend.NewMemory(backend.MemoryConfig{})
	_ = mem.PutTicket(backend.TicketRecord{
		Number:           "B/0125/1234",
		Status:           backend.TicketActive,
		Customer:         ticket.Customer{ID: "c-1", Name: "Alice Tan", NationalID: "S1234567A"},
		RenewalFee:       money.MustParse("24.00"),
		RedemptionAmount: money.MustParse("824.00"),
	})
	_ = mem.RegisterStaff(backend.StaffRegistration{StaffID: "st-1", Name: "Tina", Role: authz.RoleTeller, PIN: "1234"})

	m, _ := workflow.New(ctx, workflow.Config{Lookup: mem, Authenticator: mem, Committer: mem})

	_, _ = m.AddTicket(ctx, "B/0125/1234", ticket.KindRenew)
	stage, _ := m.Advance(ctx)
	fmt.Println(stage)

	_ = m.SetCustomerVerified(true)
	stage, _ = m.Advance(ctx)
	fmt.Println(stage)

	_ = m.SetPayment(reconcile.Split{Cash: money.MustParse("24.00")})
	stage, _ = m.Advance(ctx)
	fmt.Println(stage, "change", m.Snapshot().Reconciliation.Change)

	_ = m.AttachCredentials(ctx, workflow.Attachment{Role: workflow.RolePrimary, StaffID: "st-1", PIN: "1234"})
	fmt.Println("unmet:", len(m.Snapshot().Unmet))

	_ = m.Confirm(workflow.ConfirmDocuments, true)
	_ = m.Confirm(workflow.ConfirmCompliance, true)
	_ = m.Confirm(workflow.ConfirmFinal, true)

	if _, err := m.Commit(ctx); err == nil {
		fmt.Println(m.Stage())
	}

	// Output:
	// VERIFICATION
	// PAYMENT
	// REVIEW change 0.00
	// unmet: 3
	// COMMITTED
}
