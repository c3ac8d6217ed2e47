package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/yuin/gopher-lua/parse"

	"github.com/assetkit-dev/assetkit/internal/application/dto"
	"github.com/assetkit-dev/assetkit/internal/domain/entities"
	"github.com/assetkit-dev/assetkit/internal/domain/traits"
	"github.com/assetkit-dev/assetkit/internal/domain/values"
	"github.com/assetkit-dev/assetkit/internal/scripting/bridge"
	"github.com/assetkit-dev/assetkit/internal/scripting/hostenv"
	"github.com/assetkit-dev/assetkit/internal/scripting/session"
	"github.com/assetkit-dev/assetkit/internal/version"
)

var (
	accentColor    = lipgloss.Color("#3B82F6")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	highlightColor = lipgloss.Color("#F59E0B")

	promptStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(successColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	headerStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true).
			Padding(0, 1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(highlightColor)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accentColor).
			Padding(0, 1)
)

// replTickInterval paces the steps that drive suspended chunks and timers.
const replTickInterval = 50 * time.Millisecond

var luaKeywords = []string{
	"and", "break", "do", "else", "elseif", "end", "false", "for", "function",
	"if", "in", "local", "nil", "not", "or", "repeat", "return", "then", "true", "until", "while",
}

var replPassword string

// replCmd represents the repl command
var replCmd = &cobra.Command{
	Use:   "repl [asset]",
	Short: "Interactive Lua shell against the host bridge",
	Long: `Start an interactive shell whose chunks run in one persistent script
session. With an asset argument the shell is bound to the loaded asset and
every intrinsic acts on its traits; without one it is bound to a bare host
object.`,
	Args: cobra.MaximumNArgs(1),
	RunE: withContainer(func(cc *CommandContext, _ *cobra.Command, args []string) error {
		return runREPLAction(cc, args)
	}),
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().StringVar(&replPassword, "password", "", "Password for an encrypted archive")
}

func runREPLAction(cc *CommandContext, args []string) error {
	// Log records would tear the alternate screen.
	svc := *cc.Container.Services()
	svc.Logger = slog.New(slog.DiscardHandler)

	var target bridge.Target = bridge.NewHostObject("repl", "repl", traits.NewSet())
	if len(args) == 1 {
		asset, err := cc.Container.Loader().Load(cc.Context, dto.LoadAssetRequest{Ref: args[0], Password: replPassword})
		if err != nil {
			return err
		}
		defer func() {
			if err := asset.Destroy(); err != nil {
				cc.Logger.Warn("failed to destroy asset", "error", err)
			}
		}()
		target = asset
	}

	shell, err := newReplShell(target, &svc)
	if err != nil {
		return err
	}
	defer shell.close()

	p := tea.NewProgram(newREPLModel(cc.Context, shell), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// lineSink collects session output until the shell drains it.
type lineSink struct {
	lines []historyLine
}

func (s *lineSink) Output(_ values.ScriptID, line string) {
	s.lines = append(s.lines, historyLine{text: line})
}

func (s *lineSink) Error(_ values.ScriptID, line string) {
	s.lines = append(s.lines, historyLine{text: line, isErr: true})
}

func (s *lineSink) drain() []historyLine {
	out := s.lines
	s.lines = nil
	return out
}

// replShell owns the persistent session behind the REPL.
type replShell struct {
	bridge   *bridge.Bridge
	services *hostenv.Services
	sink     *lineSink
	sess     *session.Session
}

func newReplShell(target bridge.Target, svc *hostenv.Services) (*replShell, error) {
	b, err := bridge.New(target, svc)
	if err != nil {
		return nil, err
	}
	sh := &replShell{bridge: b, services: svc, sink: &lineSink{}}
	if err := sh.reset(); err != nil {
		return nil, err
	}
	return sh, nil
}

// reset replaces the session, dropping globals, tasks and timers.
func (sh *replShell) reset() error {
	if sh.sess != nil {
		sh.sess.Close()
	}
	script := entities.NewScript("repl", values.TriggerOnLoad, "")
	sess, err := session.New(script, sh.bridge, sh.services, session.Options{
		Persistent: true,
		Sink:       sh.sink,
	})
	if err != nil {
		return err
	}
	sh.sess = sess
	return nil
}

// eval runs one input line. Expressions are returned, statements executed.
func (sh *replShell) eval(ctx context.Context, input string) (string, []historyLine, error) {
	chunk := input
	if _, err := parse.Parse(strings.NewReader("return "+input), "repl"); err == nil {
		chunk = "return " + input
	}

	results, pending, err := sh.sess.Eval(ctx, chunk)
	lines := sh.sink.drain()
	if err != nil {
		return "", lines, err
	}
	if pending {
		return "(suspended, resumes on later frames)", lines, nil
	}
	if len(results) == 0 {
		return "", lines, nil
	}
	parts := make([]string, len(results))
	for i, v := range results {
		parts[i] = bridge.Stringify(v)
	}
	return strings.Join(parts, ", "), lines, nil
}

// step advances suspended chunks and timers by one frame. A session that
// failed in the background is replaced.
func (sh *replShell) step(ctx context.Context) ([]historyLine, error) {
	res := sh.sess.Step(ctx)
	lines := sh.sink.drain()
	if res == session.Failed || res == session.Stopped {
		msg := sh.sess.Message()
		if err := sh.reset(); err != nil {
			return lines, err
		}
		return lines, fmt.Errorf("session %s: %s (state reset)", res, msg)
	}
	return lines, nil
}

func (sh *replShell) traits() []traits.Trait {
	set := sh.bridge.Target().Traits()
	if set == nil {
		return nil
	}
	return set.All()
}

func (sh *replShell) close() {
	sh.sess.Close()
}

type historyLine struct {
	text  string
	isErr bool
}

type historyEntry struct {
	input  string
	lines  []historyLine
	output string
	isErr  bool
}

type replTickMsg struct{}

type replModel struct {
	ctx         context.Context
	shell       *replShell
	textInput   textinput.Model
	history     []historyEntry
	cmdHistory  []string
	historyIdx  int
	width       int
	height      int
	showHelp    bool
	showTraits  bool
	quitting    bool
	initialized bool
}

type keyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	CtrlC key.Binding
	CtrlD key.Binding
	CtrlL key.Binding
	Tab   key.Binding
	CtrlT key.Binding
	CtrlK key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "previous command"),
	),
	Down: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "next command"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "execute"),
	),
	CtrlC: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
	CtrlD: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "quit"),
	),
	CtrlL: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("ctrl+l", "clear"),
	),
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "autocomplete"),
	),
	CtrlT: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "toggle traits"),
	),
	CtrlK: key.NewBinding(
		key.WithKeys("ctrl+k"),
		key.WithHelp("ctrl+k", "toggle help"),
	),
}

func newREPLModel(ctx context.Context, shell *replShell) replModel {
	ti := textinput.New()
	ti.Placeholder = "type a Lua expression or statement..."
	ti.Focus()
	ti.CharLimit = 2000
	ti.Width = 60
	ti.PromptStyle = promptStyle
	ti.Prompt = "lua> "

	return replModel{
		ctx:        ctx,
		shell:      shell,
		textInput:  ti,
		history:    make([]historyEntry, 0),
		cmdHistory: make([]string, 0),
		historyIdx: -1,
	}
}

func replTick() tea.Cmd {
	return tea.Tick(replTickInterval, func(time.Time) tea.Msg { return replTickMsg{} })
}

func (m replModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, replTick())
}

func (m replModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.textInput.Width = msg.Width - 10
		m.initialized = true
		return m, nil

	case replTickMsg:
		if m.quitting {
			return m, nil
		}
		lines, err := m.shell.step(m.ctx)
		if len(lines) > 0 || err != nil {
			entry := historyEntry{lines: lines}
			if err != nil {
				entry.output, entry.isErr = err.Error(), true
			}
			m.history = append(m.history, entry)
		}
		return m, replTick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.CtrlC), key.Matches(msg, keys.CtrlD):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, keys.CtrlL):
			m.history = make([]historyEntry, 0)
			return m, nil

		case key.Matches(msg, keys.CtrlT):
			m.showTraits = !m.showTraits
			return m, nil

		case key.Matches(msg, keys.CtrlK):
			m.showHelp = !m.showHelp
			return m, nil

		case key.Matches(msg, keys.Up):
			if len(m.cmdHistory) > 0 {
				if m.historyIdx == -1 {
					m.historyIdx = len(m.cmdHistory) - 1
				} else if m.historyIdx > 0 {
					m.historyIdx--
				}
				m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Down):
			if m.historyIdx != -1 {
				if m.historyIdx < len(m.cmdHistory)-1 {
					m.historyIdx++
					m.textInput.SetValue(m.cmdHistory[m.historyIdx])
				} else {
					m.historyIdx = -1
					m.textInput.SetValue("")
				}
				m.textInput.CursorEnd()
			}
			return m, nil

		case key.Matches(msg, keys.Tab):
			m = m.handleAutocomplete()
			return m, nil

		case key.Matches(msg, keys.Enter):
			input := strings.TrimSpace(m.textInput.Value())
			if input == "" {
				return m, nil
			}

			if strings.HasPrefix(input, ":") {
				var cmd tea.Cmd
				m, cmd = m.handleCommand(input)
				m.textInput.SetValue("")
				m.historyIdx = -1
				return m, cmd
			}

			m.history = append(m.history, m.evaluate(input))
			m.cmdHistory = append(m.cmdHistory, input)
			m.textInput.SetValue("")
			m.historyIdx = -1
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m replModel) evaluate(input string) historyEntry {
	output, lines, err := m.shell.eval(m.ctx, input)
	if err != nil {
		return historyEntry{input: input, lines: lines, output: err.Error(), isErr: true}
	}
	return historyEntry{input: input, lines: lines, output: output}
}

func (m replModel) handleCommand(input string) (replModel, tea.Cmd) {
	parts := strings.Fields(input)
	cmd := parts[0]

	switch cmd {
	case ":help", ":h":
		m.showHelp = !m.showHelp
	case ":clear", ":c":
		m.history = make([]historyEntry, 0)
	case ":traits", ":t":
		m.showTraits = !m.showTraits
	case ":intrinsics", ":i":
		m.history = append(m.history, historyEntry{
			input:  input,
			output: m.intrinsicList(parts[1:]),
		})
	case ":reset", ":r":
		entry := historyEntry{input: input, output: "Session reset"}
		if err := m.shell.reset(); err != nil {
			entry.output, entry.isErr = err.Error(), true
		}
		m.history = append(m.history, entry)
	case ":quit", ":q":
		m.quitting = true
		return m, tea.Quit
	default:
		m.history = append(m.history, historyEntry{
			input:  input,
			output: fmt.Sprintf("Unknown command: %s", cmd),
			isErr:  true,
		})
	}
	return m, nil
}

// intrinsicList lists intrinsic signatures, optionally of one category.
func (m replModel) intrinsicList(args []string) string {
	if len(args) == 0 {
		return "Categories: " + strings.Join(m.shell.bridge.Categories(), ", ")
	}
	var sigs []string
	for _, in := range m.shell.bridge.Intrinsics() {
		if in.Category == args[0] {
			sigs = append(sigs, in.Signature())
		}
	}
	if len(sigs) == 0 {
		return fmt.Sprintf("No intrinsics in category %q", args[0])
	}
	return strings.Join(sigs, "\n    ")
}

func (m replModel) handleAutocomplete() replModel {
	input := m.textInput.Value()
	if input == "" {
		return m
	}

	// Complete the identifier under the cursor
	start := strings.LastIndexFunc(input, func(r rune) bool {
		return !(r == '_' || r == '.' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	}) + 1
	lastWord := strings.TrimPrefix(input[start:], session.SDKTable+".")
	if lastWord == "" {
		return m
	}

	var completions []string
	for _, name := range m.shell.bridge.Names() {
		if strings.HasPrefix(name, lastWord) {
			completions = append(completions, name)
		}
	}
	for _, k := range luaKeywords {
		if strings.HasPrefix(k, lastWord) {
			completions = append(completions, k)
		}
	}
	slices.Sort(completions)
	completions = slices.Compact(completions)

	if len(completions) == 1 {
		prefix := strings.TrimSuffix(input, lastWord)
		m.textInput.SetValue(prefix + completions[0])
		m.textInput.CursorEnd()
	} else if len(completions) > 1 {
		m.history = append(m.history, historyEntry{
			output: "Completions: " + strings.Join(completions, ", "),
		})
	}

	return m
}

func (m replModel) View() string {
	if !m.initialized {
		return "Loading..."
	}

	if m.quitting {
		return mutedStyle.Render("Goodbye!\n")
	}

	var b strings.Builder

	target := m.shell.bridge.Target()
	header := headerStyle.Render("AssetKit REPL")
	sub := mutedStyle.Render(fmt.Sprintf("%s · %s (%s)", version.Version, target.Name(), target.TypeName()))
	b.WriteString(header + " " + sub + "\n")
	b.WriteString(mutedStyle.Render(strings.Repeat("─", max(min(m.width-2, 60), 0))) + "\n\n")

	reservedLines := 8 // header, input, footer
	if m.showHelp {
		reservedLines += 12
	}
	if m.showTraits {
		reservedLines += len(m.shell.traits()) + 3
	}
	availableHeight := m.height - reservedLines

	var lines []string
	for _, entry := range m.history {
		lines = append(lines, renderEntry(entry)...)
	}
	if availableHeight > 0 && len(lines) > availableHeight {
		lines = lines[len(lines)-availableHeight:]
	}
	for _, line := range lines {
		b.WriteString(line + "\n")
	}

	if m.showTraits {
		b.WriteString(renderTraitsPanel(m.shell.traits()))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(renderHelpPanel())
		b.WriteString("\n")
	}

	b.WriteString(m.textInput.View() + "\n\n")

	footer := helpKeyStyle.Render("ctrl+k") + helpDescStyle.Render(" help  ") +
		helpKeyStyle.Render("ctrl+t") + helpDescStyle.Render(" traits  ") +
		helpKeyStyle.Render("ctrl+l") + helpDescStyle.Render(" clear  ") +
		helpKeyStyle.Render("ctrl+c") + helpDescStyle.Render(" quit")
	b.WriteString(footer)

	return b.String()
}

func renderEntry(entry historyEntry) []string {
	var out []string
	if entry.input != "" {
		out = append(out, mutedStyle.Render("  › ")+entry.input)
	}
	for _, l := range entry.lines {
		if l.isErr {
			out = append(out, "    "+errorStyle.Render(l.text))
		} else {
			out = append(out, "    "+l.text)
		}
	}
	switch {
	case entry.isErr:
		out = append(out, "  "+errorStyle.Render("✗ "+entry.output))
	case entry.output != "":
		out = append(out, "  "+resultStyle.Render("→ "+entry.output))
	}
	return append(out, "")
}

func renderTraitsPanel(list []traits.Trait) string {
	if len(list) == 0 {
		return borderStyle.Render(mutedStyle.Render("No traits attached"))
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Traits"))
	nameStyle := lipgloss.NewStyle().Foreground(highlightColor)
	for _, t := range list {
		lines = append(lines, fmt.Sprintf("  %s = %s", nameStyle.Render(t.Name()), bridge.Stringify(bridge.Normalize(t.Value()))))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func renderHelpPanel() string {
	help := []struct {
		key  string
		desc string
	}{
		{"↑/↓", "Navigate command history"},
		{"Tab", "Autocomplete intrinsics and keywords"},
		{"Enter", "Evaluate the line"},
		{":help", "Toggle this help"},
		{":traits", "Toggle traits panel"},
		{":intrinsics", "List categories, or one category's intrinsics"},
		{":clear", "Clear history"},
		{":reset", "Start a fresh session"},
		{":quit", "Exit REPL"},
	}

	var lines []string
	lines = append(lines, lipgloss.NewStyle().Bold(true).Foreground(accentColor).Render("Help"))
	for _, h := range help {
		line := fmt.Sprintf("  %s  %s",
			helpKeyStyle.Render(fmt.Sprintf("%-12s", h.key)),
			helpDescStyle.Render(h.desc))
		lines = append(lines, line)
	}

	return borderStyle.Render(strings.Join(lines, "\n"))
}
