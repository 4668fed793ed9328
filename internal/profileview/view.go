// Package profileview drives the profile page: it runs the projects fetch
// for a subject user, tracks the request lifecycle and derives the page
// that front-ends render.
package profileview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/kalambet/devfolio/internal/profile"
	"github.com/kalambet/devfolio/internal/projects"
	"github.com/kalambet/devfolio/internal/session"
)

// ErrUnknownProject is returned by SelectProject for an id that is not on
// the page.
var ErrUnknownProject = errors.New("project not on page")

// Phase is the lifecycle stage of the projects request.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// MarshalText renders the phase by name in JSON output.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for _, candidate := range []Phase{PhaseIdle, PhaseLoading, PhaseReady, PhaseFailed} {
		if candidate.String() == string(b) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

// FetchState is the current request state. Projects is meaningful only in
// PhaseReady and Err only in PhaseFailed.
type FetchState struct {
	Phase    Phase
	Projects projects.ProfileProjects
	Err      error
}

// Fetcher loads a subject's projects. *projects.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, subjectUserID, credential string) (projects.ProfileProjects, error)
}

// NavigationIntent asks the host to open a project's detail view.
type NavigationIntent struct {
	ProjectID string `json:"project_id"`
	Path      string `json:"path"`
}

// Navigator receives navigation intents.
type Navigator interface {
	Navigate(NavigationIntent)
}

// Notice is a transient user-facing message about a failed fetch.
type Notice struct {
	Message    string `json:"message"`
	Generation uint64 `json:"generation"`
}

// Notifier receives failure notices, once per failed request.
type Notifier interface {
	Notify(Notice)
}

// Outcome describes how one request was resolved.
type Outcome struct {
	Subject           string
	Generation        uint64
	Result            string // "ready", "failed" or "discarded"
	Message           string
	OwnedCount        int
	CollaboratedCount int
}

// Outcome results.
const (
	ResultReady     = "ready"
	ResultFailed    = "failed"
	ResultDiscarded = "discarded"
)

// Recorder is told about every resolved request, applied or discarded.
type Recorder interface {
	Record(Outcome)
}

// Options configures a View. Fetcher is required; everything else is optional.
type Options struct {
	Fetcher   Fetcher
	Session   session.Session
	Navigator Navigator
	Notifier  Notifier
	Recorder  Recorder

	// Zero selects DefaultTagLimit / DefaultDescriptionLimit.
	TagLimit         int
	DescriptionLimit int

	Logger *slog.Logger
}

// Page is the fully derived render model.
type Page struct {
	Header       profile.Profile `json:"header"`
	Subject      string          `json:"subject"`
	Phase        Phase           `json:"phase"`
	Loading      bool            `json:"loading"`
	Owned        Section         `json:"owned"`
	Collaborated Section         `json:"collaborated"`
	Notice       *Notice         `json:"notice,omitempty"`
}

// View owns the request lifecycle for one profile page.
//
// Only the most recently started request may change the state: each start
// bumps a generation counter and results carrying an older generation are
// discarded on arrival.
type View struct {
	fetcher   Fetcher
	sess      session.Session
	navigator Navigator
	notifier  Notifier
	recorder  Recorder
	limits    Limits
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	subject    string
	generation uint64
	state      FetchState
	lastReady  *projects.ProfileProjects
	notice     *Notice
	closed     bool
	pending    map[uint64]string // generation -> subject of unresolved requests
}

// New creates an idle View.
func New(opts Options) *View {
	limits := DefaultLimits()
	if opts.TagLimit > 0 {
		limits.Tags = opts.TagLimit
	}
	if opts.DescriptionLimit > 0 {
		limits.Description = opts.DescriptionLimit
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &View{
		fetcher:   opts.Fetcher,
		sess:      opts.Session,
		navigator: opts.Navigator,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		limits:    limits,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		pending:   make(map[uint64]string),
	}
}

// OnSubjectChange starts loading projects for subject and returns without
// waiting. A request already in flight is left running; its result will be
// discarded when it arrives. Calling it again for the same subject re-fetches.
// After Close it does nothing.
func (v *View) OnSubjectChange(subject string) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	gen := v.beginLocked(subject)
	v.wg.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.wg.Done()
		res, err := v.fetcher.Fetch(v.ctx, subject, v.sess.Credential)
		v.Resolve(gen, res, err)
	}()
}

// Begin moves the view to Loading for subject and returns the generation
// the caller must pass to Resolve. Use it with Resolve when the fetch runs
// somewhere else, such as an event loop command.
func (v *View) Begin(subject string) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.beginLocked(subject)
}

func (v *View) beginLocked(subject string) uint64 {
	v.generation++
	v.subject = subject
	v.pending[v.generation] = subject
	v.state = FetchState{Phase: PhaseLoading}
	v.notice = nil
	v.logger.Debug("loading projects", "subject", subject, "generation", v.generation)
	return v.generation
}

// Resolve applies the result of the request started with generation gen.
// It reports false, with a discarded outcome, when a newer request has been
// started or the view is closed.
func (v *View) Resolve(gen uint64, res projects.ProfileProjects, err error) (Outcome, bool) {
	out, applied, _ := v.resolve(gen, res, err)
	return out, applied
}

// resolve is Resolve that also returns the page as it stood right after an
// applied result. The page is the zero Page when the result was discarded.
func (v *View) resolve(gen uint64, res projects.ProfileProjects, err error) (Outcome, bool, Page) {
	v.mu.Lock()
	subject, ok := v.pending[gen]
	if !ok {
		subject = v.subject
	}
	delete(v.pending, gen)
	out := Outcome{Subject: subject, Generation: gen}
	var notice *Notice
	applied := !v.closed && gen == v.generation

	switch {
	case !applied:
		out.Result = ResultDiscarded
		out.Message = "superseded"
		if v.closed {
			out.Message = "view closed"
		}
		if err != nil {
			out.Message += ": " + MessageOf(err)
		}
	case err != nil:
		out.Result = ResultFailed
		out.Message = MessageOf(err)
		v.state = FetchState{Phase: PhaseFailed, Err: err}
		notice = &Notice{Message: out.Message, Generation: gen}
		v.notice = notice
	default:
		res = ensureSlices(res)
		out.Result = ResultReady
		out.OwnedCount = len(res.Owned)
		out.CollaboratedCount = len(res.Collaborated)
		v.state = FetchState{Phase: PhaseReady, Projects: res}
		v.lastReady = &res
	}
	var page Page
	if applied {
		page = v.pageLocked()
	}
	v.mu.Unlock()

	// Collaborators run outside the lock so they may read the page.
	switch out.Result {
	case ResultDiscarded:
		v.logger.Debug("discarded projects result", "generation", gen, "reason", out.Message)
	case ResultFailed:
		v.logger.Warn("projects fetch failed", "subject", out.Subject, "error", err)
		if v.notifier != nil {
			v.notifier.Notify(*notice)
		}
	}
	if v.recorder != nil {
		v.recorder.Record(out)
	}
	return out, applied, page
}

// Refresh runs one fetch for subject synchronously and returns the page it
// produced. It is meant for one-shot renderers and may be called
// concurrently: when a newer request supersedes this one, the returned page
// still describes subject, built from this request's own result.
func (v *View) Refresh(ctx context.Context, subject string) Page {
	gen := v.Begin(subject)
	res, err := v.fetcher.Fetch(ctx, subject, v.sess.Credential)
	out, applied, page := v.resolve(gen, res, err)
	if applied {
		return page
	}
	if err != nil {
		return v.buildPage(subject, PhaseFailed, projects.Empty(), &Notice{Message: MessageOf(err), Generation: gen})
	}
	v.logger.Debug("returning superseded result to caller", "subject", subject, "generation", out.Generation)
	return v.buildPage(subject, PhaseReady, ensureSlices(res), nil)
}

// Fetch runs the configured fetcher with the view's credential. Event-loop
// front-ends call it from their own goroutine between Begin and Resolve.
func (v *View) Fetch(ctx context.Context, subject string) (projects.ProfileProjects, error) {
	return v.fetcher.Fetch(ctx, subject, v.sess.Credential)
}

// Context is cancelled when the view is closed.
func (v *View) Context() context.Context {
	return v.ctx
}

// Close cancels outstanding fetches and waits for their goroutines. Results
// that arrive afterwards are discarded. It is safe to call more than once.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	v.cancel()
	v.wg.Wait()
}

// State returns the current fetch state.
func (v *View) State() FetchState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Generation returns the generation of the most recently started request.
func (v *View) Generation() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.generation
}

// ClearNotice drops the current notice once the front-end has shown it long
// enough. A notice from a later request is left alone.
func (v *View) ClearNotice(gen uint64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.notice != nil && v.notice.Generation == gen {
		v.notice = nil
	}
}

// Page derives the render model. While loading, and after a failure, the
// sections show the last successfully loaded projects; with none they are
// empty and show the placeholder.
func (v *View) Page() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageLocked()
}

func (v *View) pageLocked() Page {
	data := projects.Empty()
	if v.lastReady != nil {
		data = *v.lastReady
	}
	var notice *Notice
	if v.notice != nil {
		n := *v.notice
		notice = &n
	}
	return v.buildPage(v.subject, v.state.Phase, data, notice)
}

// buildPage reads only fields fixed at construction, so it needs no lock.
func (v *View) buildPage(subject string, phase Phase, data projects.ProfileProjects, notice *Notice) Page {
	p := Page{
		Header:       v.sess.CurrentUser,
		Subject:      subject,
		Phase:        phase,
		Loading:      phase == PhaseLoading,
		Owned:        BuildSection(OwnedTitle, data.Owned, v.limits),
		Collaborated: BuildSection(CollaboratedTitle, data.Collaborated, v.limits),
		Notice:       notice,
	}
	if p.Header.Skills == nil {
		p.Header.Skills = []string{}
	}
	return p
}

// SelectProject emits a navigation intent for a project on the page. The
// fetch state is not touched.
func (v *View) SelectProject(id string) (NavigationIntent, error) {
	v.mu.Lock()
	found := false
	if v.lastReady != nil {
		for _, list := range [][]projects.Summary{v.lastReady.Owned, v.lastReady.Collaborated} {
			for _, p := range list {
				if p.ID == id {
					found = true
				}
			}
		}
	}
	v.mu.Unlock()

	if !found || id == "" {
		return NavigationIntent{}, fmt.Errorf("%w: %q", ErrUnknownProject, id)
	}
	intent := NavigationIntent{ProjectID: id, Path: ProjectPath(id)}
	if v.navigator != nil {
		v.navigator.Navigate(intent)
	}
	return intent, nil
}

// ProjectPath is the route of a project's detail view.
func ProjectPath(id string) string {
	return "/project/" + url.PathEscape(id)
}

// MessageOf returns the user-facing text for a fetch error.
func MessageOf(err error) string {
	var info *projects.ErrorInfo
	if errors.As(err, &info) && info.Message != "" {
		return info.Message
	}
	if errors.Is(err, context.Canceled) {
		return "Request cancelled"
	}
	return projects.FallbackMessage
}

func ensureSlices(p projects.ProfileProjects) projects.ProfileProjects {
	if p.Owned == nil {
		p.Owned = []projects.Summary{}
	}
	if p.Collaborated == nil {
		p.Collaborated = []projects.Summary{}
	}
	return p
}
