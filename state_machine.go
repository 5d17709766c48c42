package ridepool

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// ViewState is the application's current mode. Exactly one is active at any
// time; the transition table below makes every other combination unreachable.
type ViewState string

const (
	// ViewStateLoading is the initial state while the session is evaluated
	ViewStateLoading ViewState = "loading"
	// ViewStateAnonymous means no session is active
	ViewStateAnonymous ViewState = "anonymous"
	// ViewStateUnregistered means a session exists but no profile is stored
	ViewStateUnregistered ViewState = "authenticated_unregistered"
	// ViewStateRegistered means a session and a stored profile both exist
	ViewStateRegistered ViewState = "authenticated_registered"
)

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	From    ViewState
	To      ViewState
	Session *SessionObject
	Profile *Profile
}

// TransitionHook is executed before or after a view state change. A before
// hook returning an error aborts the transition.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// StateMachineOption customizes state machine construction.
type StateMachineOption func(*StateMachine)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) StateMachineOption {
	return func(m *StateMachine) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger Logger) StateMachineOption {
	return func(m *StateMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithActivitySink sets the ActivitySink used to publish lifecycle events.
func WithActivitySink(sink ActivitySink) StateMachineOption {
	return func(m *StateMachine) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithBeforeTransitionHook adds a hook executed before every state change.
func WithBeforeTransitionHook(h TransitionHook) StateMachineOption {
	return func(m *StateMachine) {
		if h != nil {
			m.beforeHooks = append(m.beforeHooks, h)
		}
	}
}

// WithAfterTransitionHook adds a hook executed after every state change.
func WithAfterTransitionHook(h TransitionHook) StateMachineOption {
	return func(m *StateMachine) {
		if h != nil {
			m.afterHooks = append(m.afterHooks, h)
		}
	}
}

// StateMachine drives the session/profile view state from authentication
// events and profile service responses. It owns the session and the cached
// profile copy; the profile service remains the source of truth.
//
// The machine is single-flight by design: profile mutations set a pending
// flag consumers bind to their submit controls, and a second mutation while
// one is in flight is rejected. It is not safe for concurrent use from
// multiple goroutines.
type StateMachine struct {
	identity IdentityClient
	profiles ProfileService

	state   ViewState
	session *SessionObject
	profile *Profile
	pending bool

	transitions  map[ViewState]map[ViewState]struct{}
	now          func() time.Time
	logger       Logger
	activitySink ActivitySink
	beforeHooks  []TransitionHook
	afterHooks   []TransitionHook
}

// NewStateMachine returns a machine in the Loading state.
func NewStateMachine(identity IdentityClient, profiles ProfileService, opts ...StateMachineOption) *StateMachine {
	m := &StateMachine{
		identity: identity,
		profiles: profiles,
		state:    ViewStateLoading,
		transitions: map[ViewState]map[ViewState]struct{}{
			ViewStateLoading: {
				ViewStateAnonymous:    {},
				ViewStateUnregistered: {},
				ViewStateRegistered:   {},
			},
			ViewStateAnonymous: {
				ViewStateLoading: {},
			},
			ViewStateUnregistered: {
				ViewStateRegistered: {},
				ViewStateLoading:    {},
				ViewStateAnonymous:  {},
			},
			ViewStateRegistered: {
				ViewStateRegistered:   {},
				ViewStateUnregistered: {},
				ViewStateLoading:      {},
				ViewStateAnonymous:    {},
			},
		},
		now:          time.Now,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// State returns the current view state.
func (m *StateMachine) State() ViewState {
	return m.state
}

// Session returns the active session, or nil.
func (m *StateMachine) Session() *SessionObject {
	return m.session
}

// Profile returns a copy of the cached profile, or nil. The cache itself is
// only replaced by successful service responses.
func (m *StateMachine) Profile() *Profile {
	if m.profile == nil {
		return nil
	}
	p := *m.profile
	return &p
}

// Pending reports whether a profile mutation is in flight. Consumers disable
// their submit controls while it is true.
func (m *StateMachine) Pending() bool {
	return m.pending
}

// BeginSignIn starts the federated sign-in redirect and returns the hosted
// UI URL to navigate to. The view state does not change: the redirect leaves
// the process entirely and the outcome is only observed by EvaluateSession
// after the next load.
func (m *StateMachine) BeginSignIn(ctx context.Context, provider string) (string, error) {
	target, err := m.identity.BeginFederatedSignIn(ctx, provider)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryAuth, "failed to initiate sign in")
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSignInInitiated,
		FromState: m.state,
		ToState:   m.state,
		Metadata:  map[string]any{"provider": provider},
	})

	return target, nil
}

// EvaluateSession re-enters Loading, queries the identity client, and
// settles into Anonymous, Unregistered, or Registered. It is idempotent
// against an unchanged backend and is the only entry point after a reload.
func (m *StateMachine) EvaluateSession(ctx context.Context) error {
	if err := m.transition(ctx, ViewStateLoading); err != nil {
		return err
	}

	session, err := m.identity.CurrentSession(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoSession) {
			m.logger.Debug("session lookup failed: %v", err)
		}
		m.session = nil
		m.profile = nil
		return m.transition(ctx, ViewStateAnonymous)
	}

	if !session.HasEmail() {
		// the profile resource is keyed by email; without the claim no
		// authenticated state is reachable, so fail fast instead of
		// stalling in Loading
		m.session = nil
		m.profile = nil
		if err := m.transition(ctx, ViewStateAnonymous); err != nil {
			return err
		}
		return ErrIncompleteSession.WithMetadata(map[string]any{
			"user_id": session.GetUserID(),
		})
	}

	if session.UserID == "" {
		if id, err := FallbackUserID(session.Email); err == nil {
			session.UserID = id.String()
		}
	}

	m.session = session

	profile, err := m.profiles.Fetch(ctx, ProfileIdentifier(session.Email))
	if err != nil {
		if IsProfileNotFound(err) {
			m.profile = nil
			return m.transition(ctx, ViewStateUnregistered)
		}
		// state unchanged, the caller may retry
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user profile")
	}

	m.profile = profile
	return m.transition(ctx, ViewStateRegistered)
}

// SubmitRegistration creates the profile from the draft. Valid only from
// Unregistered; on success the machine moves to Registered with the created
// profile cached.
func (m *StateMachine) SubmitRegistration(ctx context.Context, draft *FormDraft) error {
	if m.state != ViewStateUnregistered {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"operation": "submit_registration",
			"state":     string(m.state),
		})
	}

	done, err := m.acquirePending()
	if err != nil {
		return err
	}
	defer done()

	profile, err := draft.Profile(ProfileIdentifier(m.session.Email), m.session.Email)
	if err != nil {
		return err
	}

	created, err := m.profiles.Create(ctx, profile)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to save profile")
	}

	m.profile = created
	if err := m.transition(ctx, ViewStateRegistered); err != nil {
		return err
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileCreated,
		UserID:    m.session.GetUserID(),
		FromState: ViewStateUnregistered,
		ToState:   ViewStateRegistered,
	})

	return nil
}

// SubmitUpdate replaces the stored profile with the draft contents. Valid
// only from Registered; the identifier is preserved from the cached profile.
func (m *StateMachine) SubmitUpdate(ctx context.Context, draft *FormDraft) error {
	if m.state != ViewStateRegistered {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"operation": "submit_update",
			"state":     string(m.state),
		})
	}

	done, err := m.acquirePending()
	if err != nil {
		return err
	}
	defer done()

	profile, err := draft.Profile(m.profile.Identifier, m.session.Email)
	if err != nil {
		return err
	}

	updated, err := m.profiles.Update(ctx, profile)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update profile")
	}

	m.profile = updated
	if err := m.transition(ctx, ViewStateRegistered); err != nil {
		return err
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		UserID:    m.session.GetUserID(),
		FromState: ViewStateRegistered,
		ToState:   ViewStateRegistered,
	})

	return nil
}

// SubmitDeletion removes the stored profile. Valid only from Registered; on
// success the machine moves back to Unregistered with the cache cleared.
func (m *StateMachine) SubmitDeletion(ctx context.Context) error {
	if m.state != ViewStateRegistered {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"operation": "submit_deletion",
			"state":     string(m.state),
		})
	}

	done, err := m.acquirePending()
	if err != nil {
		return err
	}
	defer done()

	if err := m.profiles.Delete(ctx, m.profile.Identifier); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete profile")
	}

	userID := m.session.GetUserID()
	m.profile = nil
	if err := m.transition(ctx, ViewStateUnregistered); err != nil {
		return err
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventProfileDeleted,
		UserID:    userID,
		FromState: ViewStateRegistered,
		ToState:   ViewStateUnregistered,
	})

	return nil
}

// SignOut terminates the session. The remote call is best-effort: local
// state is cleared and the machine lands in Anonymous even when the identity
// provider rejects the request, so the user is never trapped in an
// authenticated-looking view.
func (m *StateMachine) SignOut(ctx context.Context) error {
	from := m.state
	var userID string
	if m.session != nil {
		userID = m.session.GetUserID()
	}

	if err := m.identity.SignOut(ctx); err != nil {
		m.logger.Error("remote sign out failed, clearing local state anyway: %v", err)
	}

	m.session = nil
	m.profile = nil
	m.state = ViewStateAnonymous

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventSignOut,
		UserID:    userID,
		FromState: from,
		ToState:   ViewStateAnonymous,
	})

	return nil
}

func (m *StateMachine) acquirePending() (func(), error) {
	if m.pending {
		return nil, ErrOperationPending
	}
	m.pending = true
	return func() { m.pending = false }, nil
}

func (m *StateMachine) transition(ctx context.Context, to ViewState) error {
	from := m.state
	if from == to {
		return nil
	}

	if !m.canTransition(from, to) {
		return ErrInvalidTransition.WithMetadata(map[string]any{
			"from": string(from),
			"to":   string(to),
		})
	}

	tc := TransitionContext{
		From:    from,
		To:      to,
		Session: m.session,
		Profile: m.profile,
	}

	for _, hook := range m.beforeHooks {
		if err := hook(ctx, tc); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "before transition hook failed")
		}
	}

	m.state = to

	for _, hook := range m.afterHooks {
		if err := hook(ctx, tc); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "after transition hook failed")
		}
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventViewStateChanged,
		UserID:    tc.sessionUserID(),
		FromState: from,
		ToState:   to,
	})

	return nil
}

func (m *StateMachine) canTransition(from, to ViewState) bool {
	if allowed, ok := m.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (m *StateMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Error("activity sink error: %v", err)
	}
}

func (tc TransitionContext) sessionUserID() string {
	if tc.Session == nil {
		return ""
	}
	return tc.Session.GetUserID()
}
