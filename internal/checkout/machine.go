package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/maisonessence/storefront-checkout/internal/address"
	"github.com/maisonessence/storefront-checkout/internal/cart"
	"github.com/maisonessence/storefront-checkout/internal/forms"
	"github.com/maisonessence/storefront-checkout/internal/pricing"
	"github.com/maisonessence/storefront-checkout/pkg/commerce"
	pkgerrors "github.com/maisonessence/storefront-checkout/pkg/errors"
	"github.com/maisonessence/storefront-checkout/pkg/logger"
	"github.com/maisonessence/storefront-checkout/pkg/metrics"
)

const defaultCallTimeout = 30 * time.Second

// Deps wires a session's collaborators. The checkout core depends only on
// these narrow interfaces, never on ambient shared state.
type Deps struct {
	Carts       CartSource
	Resolver    *address.Resolver
	Methods     ShippingMethodLister
	Submitter   *Submitter
	Snapshots   SnapshotStore
	Pricing     pricing.Engine
	Notifier    Notifier
	Logger      *logger.Logger
	Metrics     *metrics.CheckoutMetrics
	CallTimeout time.Duration
}

func (d *Deps) validate() error {
	if d.Carts == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "cart source required")
	}
	if d.Resolver == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "address resolver required")
	}
	if d.Methods == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "shipping method lister required")
	}
	if d.Submitter == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order submitter required")
	}
	if d.Snapshots == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "snapshot store required")
	}
	if d.Notifier == nil {
		d.Notifier = NoopNotifier{}
	}
	if d.CallTimeout <= 0 {
		d.CallTimeout = defaultCallTimeout
	}
	return nil
}

// Session is one shopper's checkout attempt: a linear state machine over
// the shipping, payment and review steps. All mutation happens under the
// session mutex, so transitions are strictly sequential; a forward
// transition never begins before the prior step's remote work resolved.
type Session struct {
	deps Deps

	mu         sync.Mutex
	closed     atomic.Bool
	submitting bool
	draft      Draft
	stepErrors map[Step]forms.FieldErrors
}

func newSession(deps Deps, draft Draft) *Session {
	return &Session{
		deps:       deps,
		draft:      draft,
		stepErrors: make(map[Step]forms.FieldErrors),
	}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.draft.SessionID
}

// State is a read-only view of the session for the storefront.
type State struct {
	SessionID  string                     `json:"session_id"`
	Step       Step                       `json:"step"`
	Completed  []Step                     `json:"completed"`
	Draft      Draft                      `json:"draft"`
	StepErrors map[Step]forms.FieldErrors `json:"step_errors,omitempty"`
	Closed     bool                       `json:"closed"`
}

// State snapshots the current machine state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	errsCopy := make(map[Step]forms.FieldErrors, len(s.stepErrors))
	for step, errs := range s.stepErrors {
		copied := make(forms.FieldErrors, len(errs))
		for field, msg := range errs {
			copied[field] = msg
		}
		errsCopy[step] = copied
	}

	return State{
		SessionID:  s.draft.SessionID,
		Step:       s.draft.Step,
		Completed:  append([]Step(nil), s.draft.Completed...),
		Draft:      s.draft,
		StepErrors: errsCopy,
		Closed:     s.closed.Load(),
	}
}

// SubmitShipping validates the shipping step, resolves both address ids
// (creating drafts remotely when needed) and advances to payment. On any
// failure the machine stays in shipping; address ids created before the
// failure are retained on the draft.
func (s *Session) SubmitShipping(ctx context.Context, token string, form forms.ShippingForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return err
	}
	if s.draft.Step != StepShipping {
		return pkgerrors.New(pkgerrors.CodeStepBlocked, "shipping step is not active; navigate back to edit it")
	}

	crt, err := s.activeCart(ctx)
	if err != nil {
		return err
	}

	errs := forms.ValidateShipping(form)
	if !errs.Valid() {
		s.stepErrors[StepShipping] = errs
		s.deps.Metrics.IncStepTransition(string(StepShipping), "validation_error")
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping step validation failed").WithDetails(errs)
	}
	delete(s.stepErrors, StepShipping)

	s.invalidateEditedDrafts(form)

	if _, err := s.lookupMethod(ctx, crt, form.ShippingMethodID); err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(ctx, s.deps.CallTimeout)
	resolved, resolveErr := s.deps.Resolver.Resolve(tctx, address.Request{
		Token:           token,
		SavedShippingID: form.SavedShippingID,
		ShippingDraft:   form.ShippingAddress,
		SameAsShipping:  form.UseShippingAsBilling,
		SavedBillingID:  form.SavedBillingID,
		BillingDraft:    form.BillingAddress,
	}, s.draft.Resolution)
	cancel()

	if s.closed.Load() {
		// The session was torn down while the create calls were in flight;
		// a late success must not be applied to the discarded draft.
		return errSessionClosed()
	}

	s.draft.Resolution = resolved
	if resolveErr != nil {
		s.deps.Metrics.IncStepTransition(string(StepShipping), "error")
		s.deps.Notifier.Notify(ctx, s.draft.SessionID, failureNotice(resolveErr, "We could not save your address."))
		return resolveErr
	}

	s.draft.CustomerEmail = form.Email
	s.draft.CustomerPhone = form.ShippingAddress.Phone
	s.draft.ShippingMethodID = form.ShippingMethodID
	s.draft.Gift = form.Gift
	s.draft.SpecialInstructions = form.SpecialInstructions
	s.draft.markCompleted(StepShipping)
	s.draft.Step = StepPayment

	s.persistSnapshot(ctx)
	s.deps.Metrics.IncStepTransition(string(StepShipping), "ok")
	return nil
}

// SubmitPayment validates the payment step and advances to review. Card
// fields are shape-checked and then discarded; only the opaque payment
// method id reaches the draft.
func (s *Session) SubmitPayment(ctx context.Context, form forms.PaymentForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return err
	}
	if s.draft.Step != StepPayment {
		return pkgerrors.New(pkgerrors.CodeStepBlocked, "payment step requires a completed shipping step")
	}

	if _, err := s.activeCart(ctx); err != nil {
		return err
	}

	errs := forms.ValidatePayment(form)
	if !errs.Valid() {
		s.stepErrors[StepPayment] = errs
		s.deps.Metrics.IncStepTransition(string(StepPayment), "validation_error")
		return pkgerrors.New(pkgerrors.CodeValidation, "payment step validation failed").WithDetails(errs)
	}
	delete(s.stepErrors, StepPayment)

	s.draft.PaymentType = form.PaymentType
	s.draft.PaymentMethodID = form.PaymentMethodID
	s.draft.markCompleted(StepPayment)
	s.draft.Step = StepReview

	s.persistSnapshot(ctx)
	s.deps.Metrics.IncStepTransition(string(StepPayment), "ok")
	return nil
}

// Submit recomputes the pricing snapshot from the live cart and posts the
// order. The snapshot is never reused from an earlier step, so cart or
// promotion changes mid-flow cannot produce a stale total.
func (s *Session) Submit(ctx context.Context, token string) (commerce.Order, error) {
	s.mu.Lock()
	if err := s.ensureActive(); err != nil {
		s.mu.Unlock()
		return commerce.Order{}, err
	}
	if s.submitting {
		s.mu.Unlock()
		return commerce.Order{}, pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress")
	}
	if s.draft.Step != StepReview || !s.draft.StepCompleted(StepShipping) || !s.draft.StepCompleted(StepPayment) {
		s.mu.Unlock()
		return commerce.Order{}, pkgerrors.New(pkgerrors.CodeStepBlocked, "order submission requires completed shipping and payment steps")
	}

	crt, err := s.activeCart(ctx)
	if err != nil {
		s.mu.Unlock()
		return commerce.Order{}, err
	}
	method, err := s.lookupMethod(ctx, crt, s.draft.ShippingMethodID)
	if err != nil {
		s.mu.Unlock()
		return commerce.Order{}, err
	}

	quote := s.deps.Pricing.QuoteCart(crt, method, s.draft.Gift.GiftWrap)
	draft := s.draft
	s.submitting = true
	s.mu.Unlock()

	tctx, cancel := context.WithTimeout(ctx, s.deps.CallTimeout)
	order, submitErr := s.deps.Submitter.Submit(tctx, token, draft, quote)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false

	if s.closed.Load() {
		return commerce.Order{}, errSessionClosed()
	}
	if submitErr != nil {
		s.deps.Metrics.IncStepTransition(string(StepReview), "error")
		s.deps.Notifier.Notify(ctx, s.draft.SessionID, failureNotice(submitErr, "We could not place your order."))
		return commerce.Order{}, submitErr
	}

	// Terminal: the machine tears down and the draft state is discarded.
	s.closed.Store(true)
	if err := s.deps.Snapshots.Delete(ctx, s.draft.SessionID); err != nil {
		s.logWarn(ctx, "failed to delete draft snapshot after submission")
	}
	if err := s.deps.Carts.Delete(ctx, s.draft.SessionID); err != nil {
		s.logWarn(ctx, "failed to delete cart after submission")
	}
	s.deps.Metrics.IncStepTransition(string(StepReview), "ok")
	return order, nil
}

// Quote prices the live cart against the currently selected shipping method
// and gift options.
func (s *Session) Quote(ctx context.Context) (pricing.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return pricing.Quote{}, err
	}
	crt, err := s.activeCart(ctx)
	if err != nil {
		return pricing.Quote{}, err
	}

	var method *commerce.ShippingMethod
	if s.draft.ShippingMethodID != "" {
		method, err = s.lookupMethod(ctx, crt, s.draft.ShippingMethodID)
		if err != nil {
			return pricing.Quote{}, err
		}
	}

	return s.deps.Pricing.QuoteCart(crt, method, s.draft.Gift.GiftWrap), nil
}

// Back navigates to an already-completed step via the progress indicator.
// It never invalidates previously resolved addresses.
func (s *Session) Back(step Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureActive(); err != nil {
		return err
	}
	if s.submitting {
		return pkgerrors.New(pkgerrors.CodeConflict, "order submission already in progress")
	}
	if !step.Valid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown checkout step")
	}
	if step.Index() >= s.draft.Step.Index() {
		return pkgerrors.New(pkgerrors.CodeStepBlocked, "can only navigate back to a completed step")
	}
	if !s.draft.StepCompleted(step) {
		return pkgerrors.New(pkgerrors.CodeStepBlocked, "can only navigate back to a completed step")
	}

	s.draft.Step = step
	return nil
}

// ClearFieldError drops a single field's error after the shopper edits that
// field. Full-step validation still re-runs on the next continue attempt.
func (s *Session) ClearFieldError(step Step, field string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errs, ok := s.stepErrors[step]; ok {
		errs.Clear(field)
	}
}

// Close tears the session down, e.g. when the shopper navigates away. Any
// in-flight remote result is discarded rather than applied.
func (s *Session) Close(ctx context.Context) {
	if s.closed.Swap(true) {
		return
	}
	if err := s.deps.Snapshots.Delete(ctx, s.draft.SessionID); err != nil {
		s.logWarn(ctx, "failed to delete draft snapshot on close")
	}
}

func (s *Session) ensureActive() error {
	if s.closed.Load() {
		return errSessionClosed()
	}
	return nil
}

// activeCart loads the live cart and enforces the navigational guard: an
// empty cart at any point forces an immediate exit from checkout.
func (s *Session) activeCart(ctx context.Context) (cart.Cart, error) {
	crt, err := s.deps.Carts.Get(ctx, s.draft.SessionID)
	if err != nil {
		return cart.Cart{}, err
	}
	if crt.IsEmpty() {
		s.closed.Store(true)
		if err := s.deps.Snapshots.Delete(ctx, s.draft.SessionID); err != nil {
			s.logWarn(ctx, "failed to delete draft snapshot on cart-empty exit")
		}
		return cart.Cart{}, errCartEmpty()
	}
	return crt, nil
}

func (s *Session) lookupMethod(ctx context.Context, crt cart.Cart, methodID string) (*commerce.ShippingMethod, error) {
	tctx, cancel := context.WithTimeout(ctx, s.deps.CallTimeout)
	defer cancel()

	methods, err := s.deps.Methods.ListShippingMethods(tctx, crt.Subtotal())
	if err != nil {
		return nil, err
	}
	for i := range methods {
		if methods[i].ShippingMethodID == methodID {
			return &methods[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "selected shipping method is not available").WithDetails(forms.FieldErrors{
		"shipping_method_id": "is not available",
	})
}

// invalidateEditedDrafts drops cached created-address ids whose source
// fields changed since the create call, so edits are persisted on the next
// attempt instead of silently reusing stale addresses.
func (s *Session) invalidateEditedDrafts(form forms.ShippingForm) {
	if form.SavedShippingID == "" {
		fp := fieldsFingerprint(form.ShippingAddress)
		if s.draft.ShippingFieldsFP != "" && s.draft.ShippingFieldsFP != fp {
			s.draft.Resolution.InvalidateShipping()
		}
		s.draft.ShippingFieldsFP = fp
	}
	if !form.UseShippingAsBilling && form.SavedBillingID == "" {
		fp := fieldsFingerprint(form.BillingAddress)
		if s.draft.BillingFieldsFP != "" && s.draft.BillingFieldsFP != fp {
			s.draft.Resolution.InvalidateBilling()
		}
		s.draft.BillingFieldsFP = fp
	}
}

func (s *Session) persistSnapshot(ctx context.Context) {
	if err := s.deps.Snapshots.Save(ctx, s.draft); err != nil {
		s.logWarn(ctx, "failed to persist draft snapshot")
	}
}

func (s *Session) logWarn(ctx context.Context, msg string) {
	if s.deps.Logger == nil {
		return
	}
	ctx = s.deps.Logger.WithSessionID(ctx, s.draft.SessionID)
	s.deps.Logger.Warn(ctx, msg)
}

// failureNotice phrases a step failure for the shopper, inviting a retry
// only when the failure class can actually succeed on one.
func failureNotice(err error, base string) string {
	if pkgerrors.Retryable(err) {
		return base + " Please try again."
	}
	return base
}

func errSessionClosed() error {
	return pkgerrors.New(pkgerrors.CodeStepBlocked, "checkout session is no longer active")
}

func errCartEmpty() error {
	return pkgerrors.New(pkgerrors.CodeCartEmpty, "cart is empty").WithDetails(map[string]any{
		"redirect": "/cart",
	})
}
