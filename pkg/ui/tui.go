// Package ui provides the Bubble Tea TUI for the deposit orchestrator:
// amount entry with live paired-amount quoting, range preset selection,
// and step-by-step confirmation of the authorization sequence.
package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	depositapp "github.com/fd1az/lp-deposit/business/deposit/app"
	depositdomain "github.com/fd1az/lp-deposit/business/deposit/domain"
	poolapp "github.com/fd1az/lp-deposit/business/pool/app"
	pooldomain "github.com/fd1az/lp-deposit/business/pool/domain"
	"github.com/fd1az/lp-deposit/internal/asset"
	"github.com/fd1az/lp-deposit/internal/logger"
	"github.com/fd1az/lp-deposit/pkg/ui/components"
)

// poolRefreshInterval is how often the current price re-reads slot0
// while the dashboard is idle.
const poolRefreshInterval = 15 * time.Second

// presets in selection order.
var presets = []pooldomain.RangePreset{
	pooldomain.PresetNarrow,
	pooldomain.PresetMedium,
	pooldomain.PresetWide,
	pooldomain.PresetFull,
}

// Deps bundles the services the TUI drives.
type Deps struct {
	Machine       *depositapp.Machine
	Tracker       *depositapp.Tracker
	Bus           *depositapp.EventBus
	Pool          *poolapp.PoolService
	QuoteDebounce time.Duration
}

// ErrorEntry is an error with its arrival time.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	deps   Deps
	quoter *depositapp.Quoter
	keys   KeyMap

	// Components
	quotePanel *components.QuoteComponent
	checklist  *components.ChecklistComponent
	status     *components.StatusComponent

	// Input state
	amountInput textinput.Model
	side        depositdomain.InputSide
	presetIdx   int
	tickRange   *pooldomain.TickRange

	// Derived state
	poolState *pooldomain.PoolState
	quote     *pooldomain.LiquidityQuote

	// Flow state
	busy     bool
	txHash   string
	quitting bool
	width    int
	height   int
	errors   []ErrorEntry
}

// New creates the TUI model. The quoter is created here so its results
// flow back through the program's message loop.
func New(deps Deps) Model {
	ti := textinput.New()
	ti.Placeholder = "0.0"
	ti.CharLimit = 32
	ti.Width = 20
	ti.Focus()

	ord := deps.Pool.Ordering()
	pair := fmt.Sprintf("%s/%s", ord.Canonical0().Symbol(), ord.Canonical1().Symbol())

	m := Model{
		deps:        deps,
		keys:        DefaultKeyMap(),
		quotePanel:  components.NewQuoteComponent(pair, deps.Pool.TickSpacing()),
		checklist:   components.NewChecklistComponent(),
		status:      components.NewStatusComponent(),
		amountInput: ti,
		presetIdx:   1, // medium
	}
	m.quoter = depositapp.NewQuoter(deps.Pool, deps.QuoteDebounce, discardLogger(), func(res depositapp.QuoteResult) {
		Send(QuoteMsg{Result: res})
	})
	return m
}

// Init kicks off the first pool read and preset resolution.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.readPoolCmd(),
		m.resolvePresetCmd(presets[m.presetIdx]),
		pollCmd(),
	)
}

func pollCmd() tea.Cmd {
	return tea.Tick(poolRefreshInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

// readPoolCmd reads slot0 in the background.
func (m Model) readPoolCmd() tea.Cmd {
	pool := m.deps.Pool
	return func() tea.Msg {
		state, err := pool.State(context.Background())
		return PoolStateMsg{State: state, Err: err}
	}
}

// resolvePresetCmd resolves a preset against the live center tick.
func (m Model) resolvePresetCmd(preset pooldomain.RangePreset) tea.Cmd {
	pool := m.deps.Pool
	return func() tea.Msg {
		r, err := pool.ResolvePreset(context.Background(), preset)
		return RangeResolvedMsg{Preset: preset, Range: r, Err: err}
	}
}

// machineCmd runs one machine operation in the background.
func machineCmd(op func() error) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Err: op()}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case TickMsg:
		return m, tea.Batch(m.readPoolCmd(), pollCmd())

	case PoolStateMsg:
		if msg.Err != nil {
			m.pushError(msg.Err)
		} else {
			m.poolState = msg.State
			m.quotePanel.SetState(msg.State)
		}

	case RangeResolvedMsg:
		if msg.Err != nil {
			m.pushError(msg.Err)
		} else {
			r := msg.Range
			m.tickRange = &r
			m.quotePanel.SetRange(r, msg.Preset.Label)
			m.requestQuote()
		}

	case QuoteMsg:
		if msg.Result.Err != nil {
			m.quote = nil
			m.quotePanel.SetQuote(nil, msg.Result.Err)
		} else {
			m.quote = msg.Result.Quote
			m.quotePanel.SetQuote(msg.Result.Quote, nil)
		}

	case MachineEventMsg:
		m.applyMachineEvent(msg.Event)

	case OpDoneMsg:
		m.busy = false
		if msg.Err != nil {
			m.pushError(msg.Err)
		}
		m.syncFromMachine()

	case ErrorMsg:
		m.pushError(msg.Error)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	if key.Matches(msg, m.keys.ClearErrs) && m.status.Phase() != "input" {
		m.errors = nil
		return m, nil
	}

	if m.busy {
		// A wallet operation is pending; only quit is honored.
		return m, nil
	}

	switch m.status.Phase() {
	case "input":
		return m.handleInputKey(msg)
	case "approving":
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.runOp(func() error { return m.deps.Machine.ConfirmApproval(context.Background()) })
		case key.Matches(msg, m.keys.Cancel):
			return m.resetFlow()
		}
	case "permit_signing":
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.runOp(func() error { return m.deps.Machine.SignAndSubmit(context.Background()) })
		case key.Matches(msg, m.keys.Cancel):
			return m.resetFlow()
		}
	case "minting":
		switch {
		case key.Matches(msg, m.keys.Confirm):
			return m.runOp(func() error { return m.deps.Machine.Execute(context.Background()) })
		case key.Matches(msg, m.keys.Cancel):
			return m.resetFlow()
		}
	case "done":
		if key.Matches(msg, m.keys.Reset) {
			return m.resetFlow()
		}
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Commit):
		return m.commit()

	case key.Matches(msg, m.keys.ToggleSide):
		if m.side == depositdomain.InputSide0 {
			m.side = depositdomain.InputSide1
		} else {
			m.side = depositdomain.InputSide0
		}
		m.requestQuote()
		return m, nil

	case key.Matches(msg, m.keys.NextPreset):
		m.presetIdx = (m.presetIdx + 1) % len(presets)
		return m, m.resolvePresetCmd(presets[m.presetIdx])

	case key.Matches(msg, m.keys.PrevPreset):
		m.presetIdx = (m.presetIdx - 1 + len(presets)) % len(presets)
		return m, m.resolvePresetCmd(presets[m.presetIdx])
	}

	// Everything else edits the amount.
	var cmd tea.Cmd
	m.amountInput, cmd = m.amountInput.Update(msg)
	m.requestQuote()
	return m, cmd
}

// requestQuote schedules a debounced paired-amount computation for the
// current input, or cancels the pending one when the input is empty or
// unparsable.
func (m *Model) requestQuote() {
	if m.tickRange == nil {
		return
	}
	amt, ok := m.typedAmount()
	if !ok || !amt.IsPositive() {
		m.quoter.Cancel()
		m.quote = nil
		m.quotePanel.Clear()
		return
	}
	m.quotePanel.SetPending()
	m.quoter.Request(context.Background(), amt, *m.tickRange)
}

// typedAmount parses the amount input against the active side's token.
func (m *Model) typedAmount() (asset.Amount, bool) {
	raw := strings.TrimSpace(m.amountInput.Value())
	if raw == "" {
		return asset.Amount{}, false
	}
	amt, err := asset.ParseString(m.inputToken(), raw)
	if err != nil {
		return asset.Amount{}, false
	}
	return amt, true
}

func (m *Model) inputToken() *asset.Asset {
	ord := m.deps.Pool.Ordering()
	if m.side == depositdomain.InputSide0 {
		return ord.Canonical0()
	}
	return ord.Canonical1()
}

func (m *Model) pairedToken() *asset.Asset {
	ord := m.deps.Pool.Ordering()
	if m.side == depositdomain.InputSide0 {
		return ord.Canonical1()
	}
	return ord.Canonical0()
}

// commit builds the deposit intent from the typed amount plus the
// latest quote and hands it to the machine.
func (m Model) commit() (tea.Model, tea.Cmd) {
	if m.tickRange == nil {
		m.pushError(fmt.Errorf("no range selected yet"))
		return m, nil
	}
	typed, ok := m.typedAmount()
	if !ok || !typed.IsPositive() {
		m.pushError(fmt.Errorf("enter a positive amount first"))
		return m, nil
	}

	paired := asset.Zero(m.pairedToken())
	if m.quote != nil {
		paired = m.quote.PairedAmount
	}

	intent := &depositdomain.DepositIntent{
		Range:           *m.tickRange,
		ActiveInputSide: m.side,
	}
	if m.side == depositdomain.InputSide0 {
		intent.Amount0, intent.Amount1 = typed, paired
	} else {
		intent.Amount0, intent.Amount1 = paired, typed
	}
	if err := intent.Validate(m.deps.Pool.TickSpacing()); err != nil {
		m.pushError(err)
		return m, nil
	}

	m.quoter.Cancel()
	return m.runOp(func() error { return m.deps.Machine.Commit(context.Background(), intent) })
}

func (m Model) runOp(op func() error) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, machineCmd(op)
}

func (m Model) resetFlow() (tea.Model, tea.Cmd) {
	m.deps.Machine.Reset()
	m.syncFromMachine()
	m.txHash = ""
	m.amountInput.SetValue("")
	m.quote = nil
	m.quotePanel.Clear()
	return m, nil
}

// applyMachineEvent folds a machine event into the display state.
func (m *Model) applyMachineEvent(ev depositdomain.Event) {
	switch ev := ev.(type) {
	case depositdomain.PhaseChanged:
		m.status.SetPhase(ev.To)
		m.syncFromMachine()
	case depositdomain.TokensCompleted:
		m.syncFromMachine()
	case depositdomain.DepositCompleted:
		m.txHash = ev.TxHash.Hex()
	case depositdomain.StepFailed:
		m.pushError(ev.Err)
	}
}

// syncFromMachine refreshes phase and checklist from the machine.
func (m *Model) syncFromMachine() {
	m.status.SetPhase(m.deps.Machine.State().Phase())

	entries := m.deps.Machine.LedgerSnapshot()
	if entries == nil {
		m.checklist.Clear()
		return
	}
	rows := make([]components.ChecklistRow, len(entries))
	for i, e := range entries {
		rows[i] = components.ChecklistRow{Symbol: e.Symbol, Complete: e.Complete}
	}
	m.checklist.Update(rows)
}

func (m *Model) pushError(err error) {
	m.errors = append(m.errors, ErrorEntry{Message: err.Error(), Timestamp: time.Now()})
	if len(m.errors) > 3 {
		m.errors = m.errors[len(m.errors)-3:]
	}
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(" 💧 LP Deposit "))
	b.WriteString("\n\n")
	b.WriteString(m.status.View())
	b.WriteString("\n\n")

	left := m.quotePanel.View()
	right := m.renderStepPanel()

	if m.width > 100 {
		leftBox := BoxStyle.Width(m.width/2 - 2).Render(left)
		rightBox := BoxStyle.Width(m.width/2 - 2).Render(right)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox))
	} else {
		width := m.width - 4
		if width < 40 {
			width = 40
		}
		b.WriteString(BoxStyle.Width(width).Render(left))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(right))
	}
	b.WriteString("\n")

	if checklist := m.checklist.View(); checklist != "" {
		b.WriteString("\n")
		b.WriteString(checklist)
	}

	if len(m.errors) > 0 {
		b.WriteString("\n")
		b.WriteString(NegativeValue.Bold(true).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, e := range m.errors {
			ago := time.Since(e.Timestamp).Round(time.Second)
			b.WriteString(NegativeValue.Render("  • " + e.Message))
			b.WriteString(MutedValue.Render(fmt.Sprintf(" (%s ago)", ago)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(HelpStyle.Render(m.helpLine()))
	return b.String()
}

// renderStepPanel renders the phase-specific interaction panel.
func (m Model) renderStepPanel() string {
	var sb strings.Builder

	if m.busy {
		sb.WriteString(PromptStyle.Render("Working..."))
		sb.WriteString("\n")
		sb.WriteString(MutedValue.Render("Waiting for the wallet and the chain."))
		return sb.String()
	}

	switch state := m.deps.Machine.State().(type) {
	case depositdomain.StateInput:
		sb.WriteString(HeaderStyle.Render("NEW DEPOSIT"))
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("  Amount (%s): %s\n", m.inputToken().Symbol(), m.amountInput.View()))
		sb.WriteString(MutedValue.Render(fmt.Sprintf("  tab: type %s instead\n", m.pairedToken().Symbol())))
		sb.WriteString("\n  Preset: ")
		for i, p := range presets {
			if i == m.presetIdx {
				sb.WriteString(PromptStyle.Render("[" + p.Label + "]"))
			} else {
				sb.WriteString(MutedValue.Render(" " + p.Label + " "))
			}
		}
		sb.WriteString("\n")

	case depositdomain.StateApproving:
		step := state.Step
		sb.WriteString(HeaderStyle.Render("APPROVAL REQUIRED"))
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("  Approve %s for %s\n", step.Amount.DisplayString(), shortAddr(step.Spender.Hex())))
		sb.WriteString("\n")
		sb.WriteString(PromptStyle.Render("  y: send approval") + MutedValue.Render("   n: cancel"))

	case depositdomain.StatePermitSigning:
		step := state.Step
		sb.WriteString(HeaderStyle.Render("PERMIT SIGNATURE REQUIRED"))
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("  Sign a batched permit covering %d token(s)\n", len(step.CoveredTokens)))
		for _, tok := range step.CoveredTokens {
			sb.WriteString(MutedValue.Render("    " + shortAddr(tok.Hex()) + "\n"))
		}
		sb.WriteString("\n")
		sb.WriteString(PromptStyle.Render("  y: sign and submit") + MutedValue.Render("   n: cancel"))

	case depositdomain.StateMinting:
		step := state.Step
		sb.WriteString(HeaderStyle.Render("READY TO MINT"))
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("  Mint position via %s\n", shortAddr(step.Tx.To.Hex())))
		sb.WriteString("\n")
		sb.WriteString(PromptStyle.Render("  y: send mint transaction") + MutedValue.Render("   n: cancel"))

	case depositdomain.StateDone:
		sb.WriteString(DoneStyle.Render("DEPOSIT COMPLETE"))
		sb.WriteString("\n\n")
		sb.WriteString(fmt.Sprintf("  Tx: %s\n", m.txHash))
		sb.WriteString("\n")
		sb.WriteString(MutedValue.Render("  r: start a new deposit"))
	}

	return sb.String()
}

func (m Model) helpLine() string {
	switch m.status.Phase() {
	case "input":
		return "enter: start • tab: switch token • ↑↓: preset • ctrl+c: quit"
	case "done":
		return "r: new deposit • ctrl+c: quit"
	default:
		return "y: confirm • n: cancel • ctrl+c: quit"
	}
}

// discardLogger silences the quoter inside the TUI, where log lines
// would corrupt the rendered screen.
func discardLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "ui", nil)
}

func shortAddr(hex string) string {
	if len(hex) <= 12 {
		return hex
	}
	return hex[:8] + "…" + hex[len(hex)-4:]
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// Run starts the Bubble Tea program and wires the event bus into it.
func Run(deps Deps) error {
	model := New(deps)
	Program = tea.NewProgram(model, tea.WithAltScreen())

	deps.Bus.Subscribe(func(ev depositdomain.Event) {
		Send(MachineEventMsg{Event: ev})
	})

	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}
