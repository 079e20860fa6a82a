package rcsa

import (
	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/smartbank/rcsa/pkg/identity"
)

// Stores bundles the workflow stores built over one database handle.
type Stores struct {
	Masters     *MasterStore
	Assignments *AssignmentStore
	Approvals   *ApprovalStore
	Assessments *AssessmentStore
	Reviews     *ReviewStore
	Gate        *Gate
}

// NewStores builds the full store set.
func NewStores(db *gorm.DB) *Stores {
	gate := NewGate(db)
	return &Stores{
		Masters:     NewMasterStore(db),
		Assignments: NewAssignmentStore(db),
		Approvals:   NewApprovalStore(db),
		Assessments: NewAssessmentStore(db, gate),
		Reviews:     NewReviewStore(db),
		Gate:        gate,
	}
}

// NewRouter creates a chi router with the workflow API routes. Capability
// enforcement is per route group; authentication happens upstream.
func NewRouter(s *Stores) chi.Router {
	r := chi.NewRouter()

	canCreate := identity.RequireCapability(identity.CanCreate)
	canRead := identity.RequireCapability(identity.CanRead)
	canUpdate := identity.RequireCapability(identity.CanUpdate)
	canApprove := identity.RequireCapability(identity.CanApprove)
	canDelete := identity.RequireCapability(identity.CanDelete)
	canProvision := identity.RequireCapability(identity.CanProvision)

	r.Route("/masters", func(r chi.Router) {
		r.With(canCreate).Post("/", createMasterHandler(s.Masters))
		r.With(canRead).Get("/", listMastersHandler(s.Masters))
		r.With(canRead).Get("/active", activeMastersHandler(s.Masters))
		r.With(canRead).Get("/by-unit/{unitID}", mastersByUnitHandler(s.Masters))

		r.Route("/{id}", func(r chi.Router) {
			r.With(canRead).Get("/", masterDetailHandler(s.Masters, s.Assignments))
			r.With(canUpdate).Put("/", updateMasterHandler(s.Masters))
			r.With(canDelete).Delete("/", deleteMasterHandler(s.Masters))
			r.With(canProvision).Post("/assign-units", reassignHandler(s.Masters, s.Assignments))
			r.With(canUpdate).Post("/submit", submitMasterHandler(s.Masters))
			r.With(canApprove).Post("/decision", decisionHandler(s.Masters, s.Approvals))
			r.With(canProvision).Post("/publish", publishMasterHandler(s.Masters))
			r.With(canProvision).Post("/archive", archiveMasterHandler(s.Masters))
		})
	})

	r.With(canApprove).Get("/approvals/inbox", inboxHandler(s.Approvals))

	r.Route("/assessments", func(r chi.Router) {
		r.With(canUpdate).Post("/", createDraftHandler(s.Assessments))
		r.With(canRead).Get("/", listAssessmentsHandler(s.Assessments))
		r.With(canRead).Get("/drafts", draftsHandler(s.Assessments))
		r.With(canRead).Get("/mine-reviewed", mineReviewedHandler(s.Assessments))
		r.With(canRead).Get("/{id}", assessmentDetailHandler(s.Assessments))
		r.With(canUpdate).Put("/{id}", updateDraftHandler(s.Assessments))
		r.With(canUpdate).Put("/{id}/submit", submitAssessmentHandler(s.Assessments))
	})

	r.Route("/review", func(r chi.Router) {
		r.With(canApprove).Get("/queue", reviewQueueHandler(s.Assessments))
		r.With(canApprove).Post("/{id}", reviewHandler(s.Reviews))
		r.With(canApprove).Get("/{id}/notes", reviewNotesHandler(s.Reviews))
	})

	r.With(canRead).Get("/report/reviewed", reviewedReportHandler(s.Assessments))

	return r
}
