package service

// In-memory repository fakes shared by the service tests. Each fake keeps
// records in a map and exposes optional error hooks so tests can force a
// specific repository call to fail.

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsecoach/endurance-app/internal/analytics"
	"pulsecoach/endurance-app/internal/domain"
	"pulsecoach/endurance-app/internal/repository"
)

// --- Users ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	return user.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) UpdateAthleteSettings(_ context.Context, id primitive.ObjectID, rigidity domain.RigiditySetting, weeklyHoursGoal float64, experience domain.ExperienceLevel, zones []domain.TrainingZone) error {
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PlanRigidity = rigidity
	u.WeeklyHoursGoal = weeklyHoursGoal
	u.Experience = experience
	u.Zones = zones
	return nil
}

// --- Workouts ---

type fakeWorkoutRepo struct {
	workouts map[primitive.ObjectID]*domain.ScheduledWorkout

	updateSnapshotErr error
	applyPatchErr     error
	snapshotWrites    int
	patchWrites       int
}

func newFakeWorkoutRepo(workouts ...*domain.ScheduledWorkout) *fakeWorkoutRepo {
	f := &fakeWorkoutRepo{workouts: make(map[primitive.ObjectID]*domain.ScheduledWorkout)}
	for _, w := range workouts {
		f.workouts[w.ID] = w
	}
	return f
}

func (f *fakeWorkoutRepo) Create(_ context.Context, workout *domain.ScheduledWorkout) (primitive.ObjectID, error) {
	workout.ID = primitive.NewObjectID()
	f.workouts[workout.ID] = workout
	return workout.ID, nil
}

func (f *fakeWorkoutRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ScheduledWorkout, error) {
	if w, ok := f.workouts[id]; ok {
		return w, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorkoutRepo) GetByAthleteAndDate(_ context.Context, athleteID primitive.ObjectID, date time.Time) (*domain.ScheduledWorkout, error) {
	for _, w := range f.workouts {
		if w.AthleteID == athleteID && w.Date.Equal(date) {
			return w, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeWorkoutRepo) GetRange(_ context.Context, athleteID primitive.ObjectID, from, to time.Time) ([]domain.ScheduledWorkout, error) {
	var out []domain.ScheduledWorkout
	for _, w := range f.workouts {
		if w.AthleteID == athleteID && !w.Date.Before(from) && w.Date.Before(to) {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWorkoutRepo) UpdateSnapshot(_ context.Context, id primitive.ObjectID, snap domain.WorkoutSnapshot) error {
	if f.updateSnapshotErr != nil {
		return f.updateSnapshotErr
	}
	w, ok := f.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.ApplySnapshot(snap)
	f.snapshotWrites++
	return nil
}

func (f *fakeWorkoutRepo) ApplyPatch(_ context.Context, id primitive.ObjectID, patch domain.WorkoutPatch) error {
	if f.applyPatchErr != nil {
		return f.applyPatchErr
	}
	w, ok := f.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if patch.Title != nil {
		w.Title = *patch.Title
	}
	if patch.Type != nil {
		w.Type = *patch.Type
	}
	if patch.DurationMin != nil {
		w.DurationMin = *patch.DurationMin
	}
	if patch.TSS != nil {
		w.TSS = *patch.TSS
	}
	if patch.DescriptionMd != nil {
		w.DescriptionMd = *patch.DescriptionMd
	}
	if patch.PrescriptionJSON != nil {
		w.PrescriptionJSON = *patch.PrescriptionJSON
	}
	if patch.Notes != nil {
		w.Notes = *patch.Notes
	}
	f.patchWrites++
	return nil
}

func (f *fakeWorkoutRepo) MarkStarted(_ context.Context, id primitive.ObjectID, at time.Time) error {
	w, ok := f.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if w.StartedAt == nil {
		w.StartedAt = &at
	}
	return nil
}

func (f *fakeWorkoutRepo) MarkCompleted(_ context.Context, id primitive.ObjectID, at time.Time, actualTSS int) error {
	w, ok := f.workouts[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.CompletedAt = &at
	w.ActualTSS = actualTSS
	return nil
}

// --- Check-ins ---

type fakeCheckInRepo struct {
	checkIns map[primitive.ObjectID]*domain.CheckIn

	setAcceptedErr error
	acceptedCalls  []*bool // every SetUserAccepted value, in order
}

func newFakeCheckInRepo(checkIns ...*domain.CheckIn) *fakeCheckInRepo {
	f := &fakeCheckInRepo{checkIns: make(map[primitive.ObjectID]*domain.CheckIn)}
	for _, c := range checkIns {
		f.checkIns[c.ID] = c
	}
	return f
}

func (f *fakeCheckInRepo) Upsert(_ context.Context, checkIn *domain.CheckIn) (primitive.ObjectID, error) {
	for _, c := range f.checkIns {
		if c.AthleteID == checkIn.AthleteID && c.Date.Equal(checkIn.Date) {
			checkIn.ID = c.ID
			f.checkIns[c.ID] = checkIn
			return c.ID, nil
		}
	}
	checkIn.ID = primitive.NewObjectID()
	f.checkIns[checkIn.ID] = checkIn
	return checkIn.ID, nil
}

func (f *fakeCheckInRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.CheckIn, error) {
	if c, ok := f.checkIns[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCheckInRepo) GetByAthleteAndDate(_ context.Context, athleteID primitive.ObjectID, date time.Time) (*domain.CheckIn, error) {
	for _, c := range f.checkIns {
		if c.AthleteID == athleteID && c.Date.Equal(date) {
			return c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeCheckInRepo) ListByAthleteSince(_ context.Context, athleteID primitive.ObjectID, since time.Time) ([]domain.CheckIn, error) {
	var out []domain.CheckIn
	for _, c := range f.checkIns {
		if c.AthleteID == athleteID && !c.Date.Before(since) {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeCheckInRepo) Update(_ context.Context, checkIn *domain.CheckIn) error {
	if _, ok := f.checkIns[checkIn.ID]; !ok {
		return repository.ErrNotFound
	}
	f.checkIns[checkIn.ID] = checkIn
	return nil
}

func (f *fakeCheckInRepo) SetUserAccepted(_ context.Context, id primitive.ObjectID, accepted *bool, overrideReason string) error {
	if f.setAcceptedErr != nil {
		return f.setAcceptedErr
	}
	c, ok := f.checkIns[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.UserAccepted = accepted
	c.UserOverrideReason = overrideReason
	f.acceptedCalls = append(f.acceptedCalls, accepted)
	return nil
}

// --- Proposals ---

type fakeProposalRepo struct {
	proposals map[primitive.ObjectID]*domain.PlanChangeProposal
	created   int
}

func newFakeProposalRepo(proposals ...*domain.PlanChangeProposal) *fakeProposalRepo {
	f := &fakeProposalRepo{proposals: make(map[primitive.ObjectID]*domain.PlanChangeProposal)}
	for _, p := range proposals {
		f.proposals[p.ID] = p
	}
	return f
}

func (f *fakeProposalRepo) Create(_ context.Context, proposal *domain.PlanChangeProposal) (primitive.ObjectID, error) {
	proposal.ID = primitive.NewObjectID()
	proposal.Status = domain.ProposalPending
	proposal.CreatedAt = time.Now().UTC()
	f.proposals[proposal.ID] = proposal
	f.created++
	return proposal.ID, nil
}

func (f *fakeProposalRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.PlanChangeProposal, error) {
	if p, ok := f.proposals[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProposalRepo) GetPendingByCheckIn(_ context.Context, checkInID primitive.ObjectID) (*domain.PlanChangeProposal, error) {
	for _, p := range f.proposals {
		if p.CheckInID == checkInID && p.Status == domain.ProposalPending {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProposalRepo) ListByAthlete(_ context.Context, athleteID primitive.ObjectID, status domain.ProposalStatus) ([]domain.PlanChangeProposal, error) {
	var out []domain.PlanChangeProposal
	for _, p := range f.proposals {
		if p.AthleteID != athleteID {
			continue
		}
		if status != "" && p.Status != status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProposalRepo) Resolve(_ context.Context, id primitive.ObjectID, status domain.ProposalStatus) error {
	p, ok := f.proposals[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status != domain.ProposalPending {
		return repository.ErrNotPending
	}
	p.Status = status
	now := time.Now().UTC()
	p.ResolvedAt = &now
	return nil
}

// --- Audit ---

type fakeAuditRepo struct {
	entries []domain.AuditLogEntry
}

func (f *fakeAuditRepo) Append(_ context.Context, entry *domain.AuditLogEntry) error {
	entry.CreatedAt = time.Now().UTC()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) ListByActorSince(_ context.Context, actorID primitive.ObjectID, since time.Time) ([]domain.AuditLogEntry, error) {
	var out []domain.AuditLogEntry
	for _, e := range f.entries {
		if e.ActorID == actorID && !e.CreatedAt.Before(since) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeAuditRepo) HasActionSince(_ context.Context, actorID primitive.ObjectID, action domain.AuditAction, since time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.ActorID == actorID && e.Action == action && !e.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeAuditRepo) countAction(action domain.AuditAction) int {
	n := 0
	for _, e := range f.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// --- Analytics sink ---

type fakeSink struct {
	events []analytics.Event
}

func (f *fakeSink) Publish(_ context.Context, event analytics.Event) {
	f.events = append(f.events, event)
}

func (f *fakeSink) names() []string {
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Name)
	}
	return out
}
