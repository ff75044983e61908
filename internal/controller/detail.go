package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/voicedesk/internal/domain"
	"github.com/Harshitk-cp/voicedesk/internal/transport"
)

type DeploymentForm struct {
	Open             bool
	DispatchID       string
	RoomName         string
	DeploymentStatus string
}

type DispatchForm struct {
	Open        bool
	PhoneNumber string
	TransferTo  string
	Loading     bool
	Success     bool
	Error       string
}

// DetailState is a snapshot of the agent detail view.
type DetailState struct {
	Loading bool
	Agent   *domain.Agent
	Status  *domain.Status
	// LoadError is set when the agent itself could not be loaded. The view
	// cannot recover from it and should offer a way back to the list.
	LoadError      string
	ActionInFlight ActionKind
	Polling        bool
	Deleted        bool
	Deployment     DeploymentForm
	Dispatch       DispatchForm
}

// DisplayStatus prefers the live process status over the stored agent status.
func (s DetailState) DisplayStatus() string {
	if s.Status != nil && s.Status.Status != "" {
		return s.Status.Status
	}
	if s.Agent != nil {
		return s.Agent.Status
	}
	return ""
}

func (s DetailState) IsRunning() bool {
	return s.Status.IsRunning()
}

// Ready reports whether the agent is loaded and actions may be attempted.
func (s DetailState) Ready() bool {
	return !s.Loading && s.Agent != nil && s.LoadError == ""
}

func emptyDeploymentForm() DeploymentForm {
	return DeploymentForm{DeploymentStatus: domain.DefaultDeploymentStatus}
}

func deploymentFormFor(agent *domain.Agent) DeploymentForm {
	form := emptyDeploymentForm()
	if agent == nil || !agent.HasDeployment() {
		return form
	}
	form.DispatchID = deref(agent.DispatchID)
	form.RoomName = deref(agent.RoomName)
	if s := deref(agent.DeploymentStatus); s != "" {
		form.DeploymentStatus = s
	}
	return form
}

// Detail drives a single agent's detail view.
//
// Start, Stop, Delete and SubmitDeployment share one admission lock: while
// one is pending the others return ErrActionInFlight without calling the
// backend. The backend must still guard against conflicting operations from
// other clients. Dispatch has its own loading flag and does not take the lock.
type Detail struct {
	api    AgentAPI
	id     string
	nav    Navigator
	logger *zap.Logger
	opts   options

	mu       sync.Mutex
	state    DetailState
	opened   bool
	disposed bool
	subs     []chan struct{}
	dwell    *time.Timer

	// Status responses are applied only if no newer request has been
	// applied already.
	issuedToken  uint64
	appliedToken uint64

	ctx    context.Context
	cancel context.CancelFunc
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewDetail(api AgentAPI, id string, nav Navigator, logger *zap.Logger, opts ...Option) *Detail {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Detail{
		api:    api,
		id:     id,
		nav:    nav,
		logger: logger.With(zap.String("agent_id", id)),
		opts:   buildOptions(opts),
		state: DetailState{
			Loading:    true,
			Deployment: emptyDeploymentForm(),
		},
		ctx:    ctx,
		cancel: cancel,
		stopCh: make(chan struct{}),
	}
}

func (d *Detail) ID() string {
	return d.id
}

// Open loads the agent and its status, then starts polling status.
// A failure to load the agent is terminal for the view and is returned; a
// failure to load status is only logged.
func (d *Detail) Open(ctx context.Context) error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return ErrClosed
	}
	if d.opened {
		d.mu.Unlock()
		return nil
	}
	d.opened = true
	d.mu.Unlock()

	ctx, done := d.bind(ctx)
	defer done()

	a, err := d.api.Get(ctx, d.id)

	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return ErrClosed
	}
	d.state.Loading = false
	if err != nil {
		d.state.LoadError = transport.Message(err, "Failed to load agent")
		d.notifyLocked()
		d.mu.Unlock()
		d.logger.Warn("failed to load agent", zap.Error(err))
		return &ActionError{Message: d.state.LoadError, Err: err}
	}
	d.state.Agent = a
	d.notifyLocked()
	d.mu.Unlock()

	if err := d.refreshStatus(ctx); err != nil {
		d.logger.Warn("failed to load status", zap.Error(err))
	}

	d.startPolling()
	return nil
}

// Close stops polling and pending timers. Responses that arrive afterwards
// are discarded and subscriber channels are closed.
func (d *Detail) Close() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	polling := d.state.Polling
	d.state.Polling = false
	if d.dwell != nil {
		d.dwell.Stop()
	}
	for _, ch := range d.subs {
		close(ch)
	}
	d.subs = nil
	d.mu.Unlock()

	d.cancel()
	if polling {
		close(d.stopCh)
		d.wg.Wait()
	}
}

// Snapshot returns a copy of the current view state.
func (d *Detail) Snapshot() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.state
	s.Agent = cloneAgent(d.state.Agent)
	if d.state.Status != nil {
		st := *d.state.Status
		s.Status = &st
	}
	return s
}

// Subscribe returns a channel that receives a value whenever the state
// changes. Notifications are coalesced; the channel is closed by Close.
func (d *Detail) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		close(ch)
		return ch
	}
	d.subs = append(d.subs, ch)
	return ch
}

func (d *Detail) notifyLocked() {
	if d.disposed {
		return
	}
	for _, ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// bind derives a context that is also cancelled when the controller closes.
func (d *Detail) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(d.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (d *Detail) startPolling() {
	d.mu.Lock()
	if d.disposed || d.state.Polling {
		d.mu.Unlock()
		return
	}
	d.state.Polling = true
	d.wg.Add(1)
	d.notifyLocked()
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		ticker := time.NewTicker(d.opts.pollInterval)
		defer ticker.Stop()

		d.logger.Debug("status polling started", zap.Duration("interval", d.opts.pollInterval))

		for {
			select {
			case <-ticker.C:
				if d.isDisposed() {
					return
				}
				if err := d.refreshStatus(d.ctx); err != nil {
					d.logger.Debug("status poll failed", zap.Error(err))
				}
			case <-d.stopCh:
				d.logger.Debug("status polling stopped")
				return
			}
		}
	}()
}

func (d *Detail) isDisposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

func (d *Detail) refreshStatus(ctx context.Context) error {
	d.mu.Lock()
	d.issuedToken++
	token := d.issuedToken
	d.mu.Unlock()

	st, err := d.api.GetStatus(ctx, d.id)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed || token < d.appliedToken {
		return nil
	}
	d.appliedToken = token
	d.state.Status = st
	d.notifyLocked()
	return nil
}

// RefreshStatus fetches the runtime status once, outside the poll schedule.
func (d *Detail) RefreshStatus(ctx context.Context) error {
	ctx, done := d.bind(ctx)
	defer done()
	return d.refreshStatus(ctx)
}

// reloadAgent re-reads the stored agent after an action. Failures keep the
// previous agent and are logged.
func (d *Detail) reloadAgent(ctx context.Context) {
	a, err := d.api.Get(ctx, d.id)
	if err != nil {
		d.logger.Warn("failed to reload agent", zap.Error(err))
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return
	}
	d.state.Agent = a
	d.notifyLocked()
}

func (d *Detail) acquire(kind ActionKind) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.disposed {
		return ErrClosed
	}
	if !d.state.Ready() {
		return ErrNotReady
	}
	if d.state.ActionInFlight != ActionNone {
		return ErrActionInFlight
	}
	d.state.ActionInFlight = kind
	d.notifyLocked()
	return nil
}

func (d *Detail) release(kind ActionKind) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state.ActionInFlight == kind {
		d.state.ActionInFlight = ActionNone
		d.notifyLocked()
	}
}

func (d *Detail) actionError(kind ActionKind, err error, fallback string) error {
	d.logger.Warn("agent action failed", zap.String("action", string(kind)), zap.Error(err))
	return &ActionError{Action: kind, Message: transport.Message(err, fallback), Err: err}
}

// Start asks the backend to start the agent, then reconciles status and the
// stored agent before releasing the action lock.
func (d *Detail) Start(ctx context.Context) error {
	return d.lifecycle(ctx, ActionStart, "Failed to start agent", func(ctx context.Context) error {
		_, err := d.api.Start(ctx, d.id)
		return err
	})
}

// Stop is Start's counterpart.
func (d *Detail) Stop(ctx context.Context) error {
	return d.lifecycle(ctx, ActionStop, "Failed to stop agent", func(ctx context.Context) error {
		_, err := d.api.Stop(ctx, d.id)
		return err
	})
}

func (d *Detail) lifecycle(ctx context.Context, kind ActionKind, fallback string, call func(context.Context) error) error {
	if err := d.acquire(kind); err != nil {
		return err
	}
	defer d.release(kind)

	ctx, done := d.bind(ctx)
	defer done()

	if err := call(ctx); err != nil {
		return d.actionError(kind, err, fallback)
	}

	if err := d.refreshStatus(ctx); err != nil {
		d.logger.Warn("failed to refresh status", zap.Error(err))
	}
	d.reloadAgent(ctx)

	d.logger.Info("agent action completed", zap.String("action", string(kind)))
	return nil
}

// Delete removes the agent and navigates to the list. The action lock stays
// held after success since the view is going away.
func (d *Detail) Delete(ctx context.Context) error {
	if err := d.acquire(ActionDelete); err != nil {
		return err
	}

	bctx, done := d.bind(ctx)
	_, err := d.api.Delete(bctx, d.id)
	done()

	if err != nil {
		d.release(ActionDelete)
		return d.actionError(ActionDelete, err, "Failed to delete agent")
	}

	d.mu.Lock()
	disposed := d.disposed
	if !disposed {
		d.state.Deleted = true
		d.notifyLocked()
	}
	d.mu.Unlock()

	d.logger.Info("agent deleted")
	if !disposed && d.nav != nil {
		d.nav.ShowList()
	}
	return nil
}

// OpenDeploymentForm opens the form, seeded from the agent's current
// deployment when it has one.
func (d *Detail) OpenDeploymentForm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Deployment = deploymentFormFor(d.state.Agent)
	d.state.Deployment.Open = true
	d.notifyLocked()
}

func (d *Detail) CloseDeploymentForm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Deployment = emptyDeploymentForm()
	d.notifyLocked()
}

// SetDeploymentForm updates the form fields. An empty deploymentStatus keeps
// the default.
func (d *Detail) SetDeploymentForm(dispatchID, roomName, deploymentStatus string) {
	if deploymentStatus == "" {
		deploymentStatus = domain.DefaultDeploymentStatus
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Deployment.DispatchID = dispatchID
	d.state.Deployment.RoomName = roomName
	d.state.Deployment.DeploymentStatus = deploymentStatus
	d.notifyLocked()
}

// SubmitDeployment records the form as the agent's deployment. The agent's
// current deployment metadata is sent back unchanged.
func (d *Detail) SubmitDeployment(ctx context.Context) error {
	d.mu.Lock()
	form := d.state.Deployment
	d.mu.Unlock()

	if strings.TrimSpace(form.DispatchID) == "" || strings.TrimSpace(form.RoomName) == "" {
		return &ValidationError{Message: "Please fill in dispatch ID and room name"}
	}

	if err := d.acquire(ActionDeployment); err != nil {
		return err
	}
	defer d.release(ActionDeployment)

	d.mu.Lock()
	metadata := map[string]any{}
	if d.state.Agent != nil && d.state.Agent.DeploymentMetadata != nil {
		metadata = d.state.Agent.DeploymentMetadata
	}
	d.mu.Unlock()

	ctx, done := d.bind(ctx)
	defer done()

	updated, err := d.api.UpdateDeployment(ctx, d.id, domain.DeploymentUpdate{
		DispatchID:         form.DispatchID,
		RoomName:           form.RoomName,
		DeploymentStatus:   form.DeploymentStatus,
		DeploymentMetadata: metadata,
	})
	if err != nil {
		return d.actionError(ActionDeployment, err, "Failed to update deployment")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return ErrClosed
	}
	d.state.Agent = updated
	d.state.Deployment = emptyDeploymentForm()
	d.notifyLocked()
	return nil
}

func (d *Detail) OpenDispatch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Dispatch.Open = true
	d.state.Dispatch.Error = ""
	d.notifyLocked()
}

// CloseDispatch dismisses the dispatch modal and clears its form. A dispatch
// that is still pending stays pending: Loading survives until it returns.
func (d *Detail) CloseDispatch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dwell != nil {
		d.dwell.Stop()
		d.dwell = nil
	}
	d.state.Dispatch = DispatchForm{Loading: d.state.Dispatch.Loading}
	d.notifyLocked()
}

func (d *Detail) SetDispatchForm(phoneNumber, transferTo string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Dispatch.PhoneNumber = phoneNumber
	d.state.Dispatch.TransferTo = transferTo
	d.notifyLocked()
}

// SubmitDispatch places a call with the agent. On success the agent is
// replaced with the one in the response and the modal closes itself after
// the success dwell. On failure the modal stays open with Error set.
func (d *Detail) SubmitDispatch(ctx context.Context) (*domain.DispatchResponse, error) {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return nil, ErrClosed
	}
	if !d.state.Ready() {
		d.mu.Unlock()
		return nil, ErrNotReady
	}
	if d.state.Dispatch.Loading {
		d.mu.Unlock()
		return nil, ErrActionInFlight
	}
	form := d.state.Dispatch
	if strings.TrimSpace(form.PhoneNumber) == "" {
		d.mu.Unlock()
		return nil, &ValidationError{Message: "Please enter a phone number"}
	}
	if d.dwell != nil {
		d.dwell.Stop()
		d.dwell = nil
	}
	d.state.Dispatch.Loading = true
	d.state.Dispatch.Success = false
	d.state.Dispatch.Error = ""
	d.notifyLocked()
	d.mu.Unlock()

	bctx, done := d.bind(ctx)
	resp, err := d.api.Dispatch(bctx, d.id, domain.DispatchRequest{
		PhoneNumber: form.PhoneNumber,
		TransferTo:  form.TransferTo,
	})
	done()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return nil, ErrClosed
	}
	d.state.Dispatch.Loading = false
	open := d.state.Dispatch.Open

	if err != nil {
		actionErr := d.actionError(ActionDispatch, err, "Failed to dispatch agent")
		if open {
			d.state.Dispatch.Error = actionErr.Error()
		}
		d.notifyLocked()
		return nil, actionErr
	}

	agent := resp.Agent
	d.state.Agent = &agent
	// No success state for a modal dismissed while the call was pending.
	if open {
		d.state.Dispatch.Success = true
		d.dwell = time.AfterFunc(d.opts.successDwell, d.finishDispatch)
	}
	d.notifyLocked()

	d.logger.Info("agent dispatched",
		zap.String("dispatch_id", resp.DispatchID),
		zap.String("room_name", resp.RoomName))
	return resp, nil
}

func (d *Detail) finishDispatch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return
	}
	d.dwell = nil
	d.state.Dispatch = DispatchForm{Loading: d.state.Dispatch.Loading}
	d.notifyLocked()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
