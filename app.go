package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nexidian/gocliselect"
	"github.com/prometheus/client_golang/prometheus"

	"vhours/internal/config"
	"vhours/internal/observability"
)

// notice slots
const (
	slotLogHoursSuccess   = "logHoursSuccess"
	slotLogHoursError     = "logHoursError"
	slotCreateUserSuccess = "createUserSuccess"
	slotCreateUserError   = "createUserError"
	slotViewHoursSuccess  = "viewHoursSuccess"
	slotViewHoursError    = "viewHoursError"
	slotStatsError        = "statsError"
	slotSubscribe         = "subscribe"
)

// Picker lets the user choose one volunteer. ok is false when nothing was chosen.
type Picker func(title string, options []Volunteer) (id string, ok bool)

type AppOptions struct {
	Config     config.Config
	Logger     *slog.Logger
	Store      StateStore
	In         io.Reader
	Out        io.Writer
	Clock      func() time.Time
	Picker     Picker
	Confirm    Confirmer
	Registry   *prometheus.Registry
	HTTPClient *http.Client

	// Interactive enables prompts and menus. NewApp does not detect it.
	Interactive bool
}

// App is the whole client state: one per process, passed to every command.
type App struct {
	cfg      config.Config
	log      *slog.Logger
	in       *bufio.Reader
	out      io.Writer
	clock    func() time.Time
	registry *prometheus.Registry
	metrics  *observability.Prom

	api     *APIClient
	session *Session
	tabs    *TabManager
	health  *HealthChecker
	notices *Notices

	table        *HoursTable
	logForm      *LogHoursForm
	createForm   *CreateVolunteerForm
	confirmation Confirmation
	volunteers   *VolunteerDropdown
	statsSelect  *VolunteerDropdown
	stats        *VolunteerStats

	picker      Picker
	confirm     Confirmer
	interactive bool

	mu          sync.Mutex
	statusLine  string
	unsubscribe func()
}

func NewApp(ctx context.Context, opts AppOptions) (*App, error) {
	if opts.Store == nil {
		return nil, errors.New("app needs a state store")
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	in := opts.In
	if in == nil {
		in = os.Stdin
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Config.HTTPTimeout}
	}

	session, err := NewSession(ctx, opts.Store, log)
	if err != nil {
		return nil, err
	}

	metrics := observability.NewProm(registry)
	api := NewAPIClient(opts.Config.BackendURL,
		WithHTTPClient(httpClient),
		WithMetrics(metrics),
		WithLogger(log),
	)

	a := &App{
		cfg:         opts.Config,
		log:         log,
		in:          bufio.NewReader(in),
		out:         out,
		clock:       clock,
		registry:    registry,
		metrics:     metrics,
		api:         api,
		session:     session,
		tabs:        NewTabManager(session, log),
		health:      NewHealthChecker(api, opts.Config.BackendURL != "", metrics, clock, log),
		notices:     NewNotices(out, clock),
		table:       NewHoursTable(api),
		logForm:     NewLogHoursForm(clock),
		createForm:  &CreateVolunteerForm{},
		volunteers:  NewVolunteerDropdown("log hours", "Select volunteer...", session),
		statsSelect: NewVolunteerDropdown("stats", "Choose volunteer...", session),
		picker:      opts.Picker,
		confirm:     opts.Confirm,
		interactive: opts.Interactive,
	}
	if a.picker == nil {
		a.picker = menuPicker
	}
	if a.confirm == nil {
		a.confirm = a.promptConfirm
	}

	a.tabs.OnTransition(a.renderTabHeader)
	a.tabs.Handle(TabLogHours, a.loadLogHours)
	a.tabs.Handle(TabViewHours, a.loadViewHours)
	a.tabs.Handle(TabUserStats, a.loadUserStats)
	a.tabs.Handle(TabRules, a.loadRules)
	a.tabs.Handle(TabConfirmation, a.loadConfirmation)

	a.unsubscribe = api.Counters().Subscribe(a.updateStatusLine)

	return a, nil
}

func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Start opens the first tab. On the very first run the rules are shown and
// flagged; an explicit fragment is then still honoured.
func (a *App) Start(ctx context.Context, fragment string) error {
	shown, err := a.session.RulesShown(ctx)
	if err != nil {
		return fmt.Errorf("read rules flag: %w", err)
	}
	if !shown {
		if _, err := a.tabs.Activate(ctx, TabRules); err != nil {
			return err
		}
		if err := a.session.MarkRulesShown(ctx); err != nil {
			return fmt.Errorf("store rules flag: %w", err)
		}
		if fragment == "" {
			return nil
		}
	}

	if fragment == "" {
		stored, err := a.session.ActiveTab(ctx)
		if err != nil {
			return fmt.Errorf("read active tab: %w", err)
		}
		fragment = string(stored)
	}

	target := a.tabs.Initial(fragment)
	if target == a.tabs.Current() {
		return nil
	}
	_, err = a.tabs.Activate(ctx, target)
	return err
}

// +---------------------+
// |                     |
// |     Tab loaders     |
// |                     |
// +---------------------+

func (a *App) renderTabHeader(t Transition) {
	marker := "→"
	if t.Direction == DirectionBackward {
		marker = "←"
	}

	var bar []string
	for _, id := range tabOrder {
		if !a.tabs.Navigable(id) && id != t.To {
			continue
		}
		title := tabTitles[id]
		if id == t.To {
			title = "[" + title + "]"
		}
		bar = append(bar, title)
	}

	fmt.Fprintln(a.out)
	fmt.Fprintf(a.out, "%s %s\n", marker, strings.Join(bar, "  "))
	fmt.Fprintln(a.out)
}

func (a *App) loadLogHours(ctx context.Context) error {
	users, err := a.api.ListVolunteers(ctx)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	if err != nil {
		return a.fail(slotLogHoursError, err, "Error loading volunteers. Please try again.")
	}
	if err := a.volunteers.Populate(ctx, users); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Volunteer: %s\n", a.volunteers.Label(a.volunteers.Selected()))
	fmt.Fprintf(a.out, "Date:      %s\n", a.logForm.Date)
	return nil
}

func (a *App) loadViewHours(ctx context.Context) error {
	if err := a.table.Reload(ctx); err != nil {
		if errors.Is(err, ErrSuperseded) {
			return nil
		}
		return a.fail(slotViewHoursError, err, "Error retrieving volunteer hours. Please try again.")
	}
	a.table.Render(a.out)
	return nil
}

func (a *App) loadUserStats(ctx context.Context) error {
	users, err := a.api.ListVolunteers(ctx)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	if err != nil {
		return a.fail(slotStatsError, err, "Error loading volunteers. Please try again.")
	}
	if err := a.statsSelect.Populate(ctx, users); err != nil {
		return err
	}

	if id := a.statsSelect.Selected(); id != "" {
		return a.loadStats(ctx, id)
	}
	fmt.Fprintln(a.out, a.statsSelect.Placeholder())
	return nil
}

func (a *App) loadRules(ctx context.Context) error {
	return RenderRules(a.out)
}

func (a *App) loadConfirmation(ctx context.Context) error {
	c := a.confirmation
	fmt.Fprintln(a.out, "Thank you for registering!")
	fmt.Fprintf(a.out, "Name:  %s\n", c.Name)
	fmt.Fprintf(a.out, "Email: %s\n", c.Email)
	if c.Phone != "" {
		fmt.Fprintf(a.out, "Phone: %s\n", c.Phone)
	}
	return nil
}

func (a *App) loadStats(ctx context.Context, id string) error {
	stats, err := a.api.VolunteerStats(ctx, id)
	if errors.Is(err, ErrSuperseded) {
		return nil
	}
	if err != nil {
		a.stats = nil
		return a.fail(slotStatsError, err, "Error retrieving volunteer stats. Please try again.")
	}

	SortEntries(stats.History)
	a.stats = &stats
	a.renderStats(stats)
	return nil
}

func (a *App) renderStats(stats VolunteerStats) {
	fmt.Fprintf(a.out, "%s\n", stats.Name)
	fmt.Fprintf(a.out, "Total: %s hours\n\n", FormatHours(stats.TotalHours))

	if len(stats.History) == 0 {
		fmt.Fprintln(a.out, "No volunteer hours recorded yet")
		return
	}

	rows := make([][]string, 0, len(stats.History))
	for _, e := range stats.History {
		rows = append(rows, []string{FormatDate(e.Date), FormatHours(e.Hours), e.Notes})
	}
	PrintTable(a.out, []string{"Date", "Hours", "Notes"}, rows, nil)
}

// +---------------------+
// |                     |
// |      Use cases      |
// |                     |
// +---------------------+

type LogInput struct {
	VolunteerID string
	Date        string
	Hours       string
	Notes       string
}

func (a *App) LogHours(ctx context.Context, in LogInput) (HoursEntry, error) {
	if _, err := a.tabs.Activate(ctx, TabLogHours); err != nil {
		return HoursEntry{}, err
	}
	return a.submitLog(ctx, in)
}

// submitLog fills the log form from in and sends it. The log-hours tab must
// already be loaded.
func (a *App) submitLog(ctx context.Context, in LogInput) (HoursEntry, error) {
	id := in.VolunteerID
	if id == "" {
		id = a.volunteers.Selected()
	}
	if id == "" && a.interactive && !a.volunteers.Empty() {
		if picked, ok := a.picker("Select volunteer", a.volunteers.Options()); ok {
			id = picked
		}
	}
	if id != "" {
		if err := a.volunteers.Select(ctx, id); err != nil {
			return HoursEntry{}, a.fail(slotLogHoursError, &ValidationError{Message: "Please select a volunteer."}, "")
		}
	}

	a.logForm.VolunteerID = id
	if in.Date != "" {
		a.logForm.Date = in.Date
	}
	a.logForm.Hours = in.Hours
	a.logForm.Notes = in.Notes

	entry, err := a.logForm.Submit(ctx, a.api)
	if err != nil {
		return HoursEntry{}, a.fail(slotLogHoursError, err, "Error logging hours. Please try again.")
	}

	a.notices.Success(slotLogHoursSuccess, "Hours logged successfully!")
	return entry, nil
}

type RegisterInput struct {
	Name  string
	Email string
	Phone string
}

func (a *App) Register(ctx context.Context, in RegisterInput) error {
	a.createForm.Name = in.Name
	a.createForm.Email = in.Email
	a.createForm.Phone = in.Phone

	req, err := a.createForm.Submit(ctx, a.api)
	if err != nil {
		return a.fail(slotCreateUserError, err, "Error registering volunteer. Please try again.")
	}

	a.confirmation.Fill(req)
	a.notices.Success(slotCreateUserSuccess, "Volunteer registered successfully!")

	users, err := a.api.ListVolunteers(ctx)
	switch {
	case err == nil:
		if err := a.volunteers.Populate(ctx, users); err != nil {
			a.log.WarnContext(ctx, "failed to refresh volunteer list", "err", err)
		}
	case !errors.Is(err, ErrSuperseded):
		a.log.WarnContext(ctx, "failed to refresh volunteer list", "err", err)
	}

	_, err = a.tabs.Show(ctx, TabConfirmation)
	return err
}

func (a *App) ListHours(ctx context.Context) error {
	_, err := a.tabs.Activate(ctx, TabViewHours)
	return err
}

type EditInput struct {
	Date  *string
	Hours *string
	Notes *string
}

// EditEntry changes one entry in a single step: begin, apply the given
// fields over the current values, save.
func (a *App) EditEntry(ctx context.Context, id int64, in EditInput) error {
	if err := a.table.Reload(ctx); err != nil {
		return a.fail(slotViewHoursError, err, "Error retrieving volunteer hours. Please try again.")
	}

	row, err := a.table.BeginEdit(id)
	if err != nil {
		return a.fail(slotViewHoursError, err, "")
	}

	draft := row.Draft()
	if in.Date != nil {
		draft.Date = *in.Date
	}
	if in.Hours != nil {
		draft.Hours = *in.Hours
	}
	if in.Notes != nil {
		draft.Notes = *in.Notes
	}
	if err := a.table.SetDraft(id, draft); err != nil {
		return err
	}

	return a.SaveEntry(ctx, id)
}

func (a *App) SaveEntry(ctx context.Context, id int64) error {
	if err := a.table.Save(ctx, id); err != nil {
		return a.fail(slotViewHoursError, err, "Error updating entry. Please try again.")
	}
	a.notices.Success(slotViewHoursSuccess, "Entry updated.")
	a.table.Render(a.out)
	return nil
}

func (a *App) DeleteEntry(ctx context.Context, id int64, skipConfirm bool) error {
	if a.table.Rows() == nil {
		if err := a.table.Reload(ctx); err != nil {
			return a.fail(slotViewHoursError, err, "Error retrieving volunteer hours. Please try again.")
		}
	}

	confirm := a.confirm
	if skipConfirm {
		confirm = func(string) bool { return true }
	}

	deleted, err := a.table.Delete(ctx, id, confirm)
	if err != nil {
		return a.fail(slotViewHoursError, err, "Error deleting entry. Please try again.")
	}
	if !deleted {
		fmt.Fprintln(a.out, "Nothing deleted.")
		return nil
	}

	a.notices.Success(slotViewHoursSuccess, "Entry deleted.")
	a.table.Render(a.out)
	return nil
}

// Stats opens the stats tab. A given id is checked against the loaded
// volunteers before it replaces the stored selection.
func (a *App) Stats(ctx context.Context, id string) error {
	if _, err := a.tabs.Activate(ctx, TabUserStats); err != nil {
		return err
	}

	if id != "" {
		if err := a.statsSelect.Select(ctx, id); err != nil {
			a.log.DebugContext(ctx, "stats volunteer rejected", "id", id, "err", err)
			return a.fail(slotStatsError, &ValidationError{Message: fmt.Sprintf("Volunteer %s was not found.", id)}, "")
		}
		return a.loadStats(ctx, id)
	}
	if a.statsSelect.Selected() != "" {
		return nil
	}

	if a.interactive && !a.statsSelect.Empty() {
		if picked, ok := a.picker("Choose volunteer", a.statsSelect.Options()); ok {
			return a.SelectStats(ctx, picked)
		}
	}
	return a.fail(slotStatsError, &ValidationError{Message: "Please select a volunteer to view their stats."}, "")
}

func (a *App) SelectStats(ctx context.Context, id string) error {
	if err := a.statsSelect.Select(ctx, id); err != nil {
		return a.fail(slotStatsError, err, "")
	}
	if id == "" {
		return a.fail(slotStatsError, &ValidationError{Message: "Please select a volunteer to view their stats."}, "")
	}
	return a.loadStats(ctx, id)
}

func (a *App) Volunteers(ctx context.Context) error {
	users, err := a.api.ListVolunteers(ctx)
	if err != nil {
		return a.fail(slotStatsError, err, "Error loading volunteers. Please try again.")
	}
	if len(users) == 0 {
		fmt.Fprintln(a.out, "No volunteers registered yet.")
		return nil
	}

	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Name})
	}
	PrintTable(a.out, []string{"ID", "Name"}, rows, nil)
	return nil
}

func (a *App) Rules(ctx context.Context) error {
	if _, err := a.tabs.Activate(ctx, TabRules); err != nil {
		return err
	}
	return a.session.MarkRulesShown(ctx)
}

// Health prints the backend indicator, or the full status page. With
// watch it keeps polling until ctx is done.
func (a *App) Health(ctx context.Context, page, watch bool) error {
	show := func(ctx context.Context) {
		if page {
			RenderStatusPage(a.out, a.health.StatusPage(ctx))
			return
		}
		RenderIndicator(a.out, a.health.Indicator(ctx))
	}

	if !watch {
		show(ctx)
		return nil
	}

	interval := a.cfg.HealthInterval
	if page {
		interval = a.cfg.StatusPageInterval
	}
	a.health.Watch(ctx, interval, show)
	return nil
}

func (a *App) Serve(ctx context.Context) error {
	srv := NewStatusServer(a.health, a.metrics, a.registry, a.log)
	return srv.Run(ctx, a.cfg)
}

func (a *App) Subscribe(ctx context.Context, email string) error {
	if email == "" && a.interactive {
		email = a.prompt("Email ("+EmailPlaceholder()+")", "")
	}

	msg, err := a.api.Subscribe(ctx, a.cfg.MaillistURL, email)
	if err != nil {
		return a.fail(slotSubscribe, err, msgSubscribeUnexpected)
	}
	a.notices.Success(slotSubscribe, msg)
	return nil
}

// +---------------------+
// |                     |
// |       Helpers       |
// |                     |
// +---------------------+

// reportedError has already been shown to the user as a notice.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail shows err in slot and returns it marked as reported. Validation and
// backend messages are shown as is; anything else shows fallback, when
// given, and is logged.
func (a *App) fail(slot string, err error, fallback string) error {
	msg := userMessage(err, fallback)
	a.notices.Error(slot, msg)

	if fallback != "" && msg == fallback {
		a.log.Error("request failed", "slot", slot, "err", err)
	}
	return &reportedError{err: err}
}

func userMessage(err error, fallback string) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}

func (a *App) updateStatusLine(s CounterSnapshot) {
	line := fmt.Sprintf("requests %d | ok %d | failed %d | post %d", s.Total, s.Success, s.Failed, s.Post)
	a.mu.Lock()
	a.statusLine = line
	a.mu.Unlock()
}

func (a *App) StatusLine() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLine
}

func (a *App) prompt(label, def string) string {
	if def != "" {
		fmt.Fprintf(a.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(a.out, "%s: ", label)
	}
	line, _ := a.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func (a *App) promptConfirm(question string) bool {
	answer := strings.ToLower(a.prompt(question+" (y/N)", ""))
	return answer == "y" || answer == "yes"
}

// menuDisplay draws the menu and blocks until a choice is made.
var menuDisplay = func(m *gocliselect.Menu) (any, error) {
	return m.Display()
}

func menuPicker(title string, options []Volunteer) (string, bool) {
	menu := gocliselect.NewMenu(title)
	for _, v := range options {
		menu.AddItem(v.Name, strconv.FormatInt(v.ID, 10))
	}
	menu.EnableSkip("Skip")

	choice, err := menuDisplay(menu)
	if err != nil {
		return "", false
	}
	id, ok := choice.(string)
	return id, ok && id != ""
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
