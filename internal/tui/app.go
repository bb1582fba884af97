package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/tormodhaugland/maiden/internal/dust"
	"github.com/tormodhaugland/maiden/internal/explorer"
	"github.com/tormodhaugland/maiden/internal/outline"
	"github.com/tormodhaugland/maiden/internal/session"
	"github.com/tormodhaugland/maiden/internal/tree"
)

const explorerWidth = 34

// paneContentWidth is the explorer width inside its border and padding.
const paneContentWidth = explorerWidth - 4

const newScriptTemplate = `-- %s

function init()
end

function redraw()
end
`

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	bufferTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	outlineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	emptyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// buffer is an open script. Virtual buffers have never been written.
type buffer struct {
	url      string
	data     []byte
	outline  *outline.Outline
	loaded   bool
	virtual  bool
	modified bool
}

// Options configures the explorer application.
type Options struct {
	Store   dust.Store
	Session *session.DB
	// Watch relists directories when the local store changes on disk.
	Watch bool
	// Editor is the command that opens a script for editing. Empty
	// falls back to $EDITOR.
	Editor string
	Logger *slog.Logger
}

// Model is the bubbletea model of the editor shell: the explorer panel
// on the left and the active buffer on the right. It owns the tree and
// the buffers and implements every explorer capability.
type Model struct {
	ctx      context.Context
	store    dust.Store
	session  *session.DB
	watcher  *watcher
	logger   *slog.Logger
	editor   string
	explorer *explorer.Explorer
	styles   explorer.Styles

	roots        []tree.Node
	buffers      map[string]*buffer
	activeBuffer string

	cursors []int
	focus   int
	hover   int
	hidden  bool
	// scroll is the first layout line drawn in the explorer pane.
	scroll int

	modal  modalView
	finder *finder

	// restore holds expanded directories from the last session that
	// have not been listed yet.
	restore map[string]bool

	viewport viewport.Model
	pending  []tea.Cmd

	width          int
	height         int
	message        string
	messageIsError bool
}

// New creates the application model.
func New(ctx context.Context, opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	m := &Model{
		ctx:      ctx,
		store:    opts.Store,
		session:  opts.Session,
		logger:   logger,
		editor:   opts.Editor,
		styles:   explorer.DefaultStyles(),
		buffers:  map[string]*buffer{},
		hover:    -1,
		restore:  map[string]bool{},
		viewport: viewport.New(40, 10),
	}
	m.explorer = explorer.New(m, logger)
	m.cursors = make([]int, len(m.explorer.Sections()))

	if m.session != nil {
		if urls, err := m.session.Expanded(); err != nil {
			logger.Warn("failed to load expanded directories", "error", err)
		} else {
			for _, url := range urls {
				m.restore[url] = true
			}
		}
		if url, err := m.session.ActiveBuffer(); err != nil {
			logger.Warn("failed to load active buffer", "error", err)
		} else {
			m.activeBuffer = url
		}
	}

	if local, ok := opts.Store.(*dust.LocalStore); ok && opts.Watch {
		w, err := newWatcher(local, logger)
		if err != nil {
			logger.Error("failed to start watcher", "error", err)
		} else {
			m.watcher = w
		}
	}

	m.syncProps()
	return m
}

func (m *Model) rootURL() string {
	return dust.DefaultPrefix
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{listCmd(m.ctx, m.store, m.rootURL())}
	if m.activeBuffer != "" {
		cmds = append(cmds, readCmd(m.ctx, m.store, m.activeBuffer))
	}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait())
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var quit bool

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeViewport()
		m.followCursor()

	case listingMsg:
		m.handleListing(msg)

	case bufferMsg:
		m.handleBuffer(msg)

	case savedMsg:
		m.handleSaved(msg)

	case deletedMsg:
		m.handleDeleted(msg)

	case renamedMsg:
		m.handleRenamed(msg)

	case duplicatedMsg:
		m.handleDuplicated(msg)

	case editedMsg:
		m.handleEdited(msg)

	case dirChangedMsg:
		// only directories already listed are refreshed; the rest load
		// when they are expanded
		if d := tree.FindDir(m.roots, msg.url); (d != nil && d.Loaded) || msg.url == m.rootURL() {
			m.enqueue(listCmd(m.ctx, m.store, msg.url))
		}
		if m.watcher != nil {
			m.enqueue(m.watcher.wait())
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case tea.KeyMsg:
		quit = m.handleKey(msg)
	}

	m.clampScroll(len(m.layout()))
	m.syncProps()
	cmd := m.drain()
	if quit {
		m.persist()
		if m.watcher != nil {
			m.watcher.Close()
		}
		return m, tea.Sequence(cmd, tea.Quit)
	}
	return m, cmd
}

// syncProps hands the explorer the current state. It runs after every
// update so the explorer never acts on stale props.
func (m *Model) syncProps() {
	m.explorer.SetProps(explorer.Props{
		Data:         m.roots,
		ActiveBuffer: m.activeBuffer,
		ActiveNode:   m.activeNode(),
		API:          m.store,
		Hidden:       m.hidden,
	})
}

func (m *Model) activeNode() tree.Node {
	if m.activeBuffer == "" {
		return nil
	}
	if n := tree.Find(m.roots, m.activeBuffer); n != nil {
		return n
	}
	if b, ok := m.buffers[m.activeBuffer]; ok {
		return &tree.Leaf{Attrs: tree.Attrs{
			Name:     dust.Base(b.url),
			URL:      b.url,
			Active:   true,
			Modified: b.modified,
			Virtual:  b.virtual,
		}}
	}
	return nil
}

func (m *Model) enqueue(cmd tea.Cmd) {
	if cmd != nil {
		m.pending = append(m.pending, cmd)
	}
}

func (m *Model) drain() tea.Cmd {
	cmds := m.pending
	m.pending = nil
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}

func (m *Model) setStatus(msg string, isError bool) {
	m.message = msg
	m.messageIsError = isError
}

func (m *Model) fail(action string, err error) {
	m.logger.Error(action+" failed", "error", err)
	m.setStatus(fmt.Sprintf("%s: %v", action, err), true)
}

// --- explorer capabilities ---

func (m *Model) ToggleNode(node *tree.Directory, toggled bool) {
	node.Toggled = toggled
	m.clampCursors()
	m.persistExpanded()
}

func (m *Model) ReadDirectory(api dust.Store, url string) {
	m.enqueue(listCmd(m.ctx, api, url))
}

func (m *Model) SelectBuffer(url string) {
	m.activeBuffer = url
	tree.SetActive(m.roots, url)

	b, ok := m.buffers[url]
	if !ok || !b.loaded {
		m.enqueue(readCmd(m.ctx, m.store, url))
	}
	m.showBuffer()
	m.persistActive()
}

func (m *Model) CreateScript(buf string) {
	dirURL := m.scriptsURL()
	if buf != "" {
		dirURL = dust.Parent(buf)
	}

	name := m.uniqueName(dirURL, "untitled", ".lua")
	url := dust.Join(dirURL, name)
	m.addVirtual(dirURL, url, []byte(fmt.Sprintf(newScriptTemplate, name)))
	m.setStatus("created "+name, false)
}

func (m *Model) DuplicateScript(buf string) {
	if buf == "" {
		m.setStatus("nothing to duplicate", true)
		return
	}

	dirURL := dust.Parent(buf)
	base := dust.Base(buf)
	ext := path.Ext(base)
	name := m.uniqueName(dirURL, strings.TrimSuffix(base, ext)+"-copy", ext)
	to := dust.Join(dirURL, name)

	src, ok := m.buffers[buf]
	if ok && src.virtual {
		m.addVirtual(dirURL, to, append([]byte(nil), src.data...))
		m.setStatus("duplicated as "+name, false)
		return
	}

	var data []byte
	if ok && src.loaded {
		data = append([]byte{}, src.data...)
	}
	m.enqueue(duplicateCmd(m.ctx, m.store, buf, to, data))
}

func (m *Model) DeleteResource(api dust.Store, buf string) {
	if buf == "" {
		return
	}
	if b, ok := m.buffers[buf]; ok && b.virtual {
		m.forget(buf)
		m.setStatus("discarded "+dust.Base(buf), false)
		return
	}
	m.enqueue(deleteCmd(m.ctx, api, buf))
}

func (m *Model) RenameResource(api dust.Store, url, name string, virtual bool) {
	if !dust.ValidName(name) {
		m.setStatus(fmt.Sprintf("invalid name %q", name), true)
		return
	}
	if virtual {
		to := dust.Join(dust.Parent(url), name)
		if to == url {
			return
		}
		if tree.Find(m.roots, to) != nil || m.buffers[to] != nil {
			m.fail("rename", fmt.Errorf("%s: %w", name, dust.ErrExists))
			return
		}
		m.moveBuffer(url, to)
		m.setStatus("renamed to "+name, false)
		return
	}
	m.enqueue(renameCmd(m.ctx, api, url, name))
}

func (m *Model) ShowModal(modal explorer.Modal) {
	m.modal = newModalView(modal)
}

func (m *Model) HideModal() {
	m.modal = nil
}

// --- effect results ---

func (m *Model) handleListing(msg listingMsg) {
	if msg.err != nil {
		m.fail("list "+msg.url, msg.err)
		return
	}

	if msg.url == m.rootURL() {
		m.roots = tree.Merge(m.roots, msg.listing.Entries)
	} else if !tree.Attach(m.roots, msg.listing) {
		m.logger.Debug("listing for detached directory", "url", msg.url)
		return
	}

	// expand directories remembered from the last session as their
	// parents arrive
	for _, e := range msg.listing.Entries {
		if !m.restore[e.URL] {
			continue
		}
		delete(m.restore, e.URL)
		if d := tree.FindDir(m.roots, e.URL); d != nil {
			d.Toggled = true
			m.enqueue(listCmd(m.ctx, m.store, e.URL))
		}
	}

	m.applyBufferFlags()
	m.clampCursors()
}

func (m *Model) handleBuffer(msg bufferMsg) {
	if msg.err != nil {
		if msg.url == m.activeBuffer && errors.Is(msg.err, dust.ErrNotFound) {
			m.activeBuffer = ""
			m.persistActive()
		}
		m.fail("open "+dust.Base(msg.url), msg.err)
		return
	}

	b, ok := m.buffers[msg.url]
	if !ok {
		b = &buffer{url: msg.url}
		m.buffers[msg.url] = b
	}
	if b.modified {
		// unsaved edits win over what is on disk
		return
	}
	b.data = msg.data
	b.outline = msg.outline
	b.loaded = true

	if msg.url == m.activeBuffer {
		tree.SetActive(m.roots, msg.url)
		m.showBuffer()
	}
}

func (m *Model) handleSaved(msg savedMsg) {
	if msg.err != nil {
		m.fail("save "+dust.Base(msg.url), msg.err)
		return
	}
	if b, ok := m.buffers[msg.url]; ok {
		b.virtual = false
		b.modified = false
	}
	m.setStatus("saved "+dust.Base(msg.url), false)
	m.revealDir(dust.Parent(msg.url))
}

// revealDir relists the nearest ancestor of dirURL that is in the tree,
// and marks the directories in between to expand as their listings
// arrive. A save can create directories the tree has never seen.
func (m *Model) revealDir(dirURL string) {
	root := m.rootURL()
	url := dirURL
	for url != root && strings.HasPrefix(url, root+"/") && tree.FindDir(m.roots, url) == nil {
		m.restore[url] = true
		url = dust.Parent(url)
	}
	if url != root && !strings.HasPrefix(url, root+"/") {
		url = root
	}
	m.enqueue(listCmd(m.ctx, m.store, url))
}

func (m *Model) handleDeleted(msg deletedMsg) {
	if msg.err != nil {
		m.fail("delete "+dust.Base(msg.url), msg.err)
		return
	}
	m.forget(msg.url)
	m.setStatus("deleted "+dust.Base(msg.url), false)
}

func (m *Model) handleRenamed(msg renamedMsg) {
	if msg.err != nil {
		m.fail("rename "+dust.Base(msg.from), msg.err)
		return
	}
	m.moveBuffer(msg.from, msg.to)
	m.setStatus("renamed to "+dust.Base(msg.to), false)
	m.enqueue(listCmd(m.ctx, m.store, dust.Parent(msg.to)))
}

func (m *Model) handleDuplicated(msg duplicatedMsg) {
	if msg.err != nil {
		m.fail("duplicate "+dust.Base(msg.from), msg.err)
		return
	}
	m.setStatus("duplicated as "+dust.Base(msg.to), false)
	m.enqueue(listCmd(m.ctx, m.store, dust.Parent(msg.to)))
	m.SelectBuffer(msg.to)
}

// --- tree and buffer bookkeeping ---

func (m *Model) scriptsURL() string {
	return dust.Join(m.rootURL(), "scripts")
}

func (m *Model) uniqueName(dirURL, stem, ext string) string {
	taken := func(name string) bool {
		url := dust.Join(dirURL, name)
		return tree.Find(m.roots, url) != nil || m.buffers[url] != nil
	}
	name := stem + ext
	for i := 2; taken(name); i++ {
		name = fmt.Sprintf("%s-%d%s", stem, i, ext)
	}
	return name
}

func (m *Model) addVirtual(dirURL, url string, data []byte) {
	m.buffers[url] = &buffer{
		url:      url,
		data:     data,
		outline:  parseOutline(m.ctx, url, data),
		loaded:   true,
		virtual:  true,
		modified: true,
	}

	leaf := &tree.Leaf{Attrs: tree.Attrs{Name: dust.Base(url), URL: url, Virtual: true, Modified: true}}
	if dirURL == m.rootURL() {
		m.roots = append(m.roots, leaf)
	} else if tree.Insert(m.roots, dirURL, leaf) {
		if d := tree.FindDir(m.roots, dirURL); d != nil && !d.Toggled {
			d.Toggled = true
			if !d.Loaded {
				m.enqueue(listCmd(m.ctx, m.store, dirURL))
			}
			m.persistExpanded()
		}
	}
	m.SelectBuffer(url)
}

// forget drops a resource from the tree and the open buffers.
func (m *Model) forget(url string) {
	m.roots = tree.Remove(m.roots, url)
	for u := range m.buffers {
		if u == url || strings.HasPrefix(u, url+"/") {
			delete(m.buffers, u)
		}
	}
	if m.activeBuffer == url || strings.HasPrefix(m.activeBuffer, url+"/") {
		m.activeBuffer = ""
		m.persistActive()
	}
	m.clampCursors()
	m.showBuffer()
}

// moveBuffer follows a rename of from to to. A renamed directory drops
// its children, which carry stale URLs, and is relisted if open.
func (m *Model) moveBuffer(from, to string) {
	if n := tree.Find(m.roots, from); n != nil {
		a := n.Base()
		a.URL = to
		a.Name = dust.Base(to)
		if d, ok := n.(*tree.Directory); ok {
			d.Children = nil
			d.Loaded = false
			if d.Toggled {
				m.enqueue(listCmd(m.ctx, m.store, to))
			}
		}
	}

	moved := func(url string) (string, bool) {
		if url == from {
			return to, true
		}
		if rest, ok := strings.CutPrefix(url, from+"/"); ok {
			return to + "/" + rest, true
		}
		return "", false
	}
	var renamed []*buffer
	for url, b := range m.buffers {
		if dst, ok := moved(url); ok {
			delete(m.buffers, url)
			b.url = dst
			renamed = append(renamed, b)
		}
	}
	for _, b := range renamed {
		b.outline = parseOutline(m.ctx, b.url, b.data)
		m.buffers[b.url] = b
	}
	if dst, ok := moved(m.activeBuffer); ok {
		m.activeBuffer = dst
		m.persistActive()
	}
	m.clampCursors()
	m.showBuffer()
}

// applyBufferFlags copies buffer state onto freshly listed leaves.
func (m *Model) applyBufferFlags() {
	tree.SetActive(m.roots, m.activeBuffer)
	for _, l := range tree.Leaves(m.roots) {
		if b, ok := m.buffers[l.URL]; ok {
			l.Modified = b.modified
			l.Virtual = b.virtual
		}
	}
}

func (m *Model) save() {
	b, ok := m.buffers[m.activeBuffer]
	if !ok || !b.loaded {
		m.setStatus("nothing to save", true)
		return
	}
	m.enqueue(saveCmd(m.ctx, m.store, b.url, b.data))
}

func (m *Model) persistExpanded() {
	if m.session == nil {
		return
	}
	if err := m.session.SaveExpanded(tree.Expanded(m.roots)); err != nil {
		m.logger.Warn("failed to save expanded directories", "error", err)
	}
}

func (m *Model) persistActive() {
	if m.session == nil {
		return
	}
	url := m.activeBuffer
	if b, ok := m.buffers[url]; ok && b.virtual {
		url = ""
	}
	if err := m.session.SetActiveBuffer(url); err != nil {
		m.logger.Warn("failed to save active buffer", "error", err)
	}
}

func (m *Model) persist() {
	m.persistExpanded()
	m.persistActive()
}

// --- input ---

func (m *Model) sections() []*explorer.Section {
	return m.explorer.Sections()
}

func (m *Model) rows(section int) []tree.Row {
	return tree.Visible(m.sections()[section].Data())
}

func (m *Model) clampCursors() {
	for i := range m.cursors {
		n := len(m.rows(i))
		if m.cursors[i] >= n {
			m.cursors[i] = n - 1
		}
		if m.cursors[i] < 0 {
			m.cursors[i] = 0
		}
	}
}

// setHover moves the pointer to section i (-1 for none), sending leave
// and enter to the sections involved.
func (m *Model) setHover(i int) {
	if i == m.hover {
		return
	}
	sections := m.sections()
	if m.hover >= 0 {
		sections[m.hover].PointerLeave()
	}
	if i >= 0 {
		sections[i].PointerEnter()
	}
	m.hover = i
}

func (m *Model) setFocus(i int) {
	n := len(m.sections())
	m.focus = (i%n + n) % n
	m.setHover(m.focus)
}

func (m *Model) handleKey(msg tea.KeyMsg) bool {
	if m.modal != nil {
		m.enqueue(m.modal.Update(msg))
		return false
	}

	if m.finder != nil {
		chosen, done, cmd := m.finder.Update(msg)
		m.enqueue(cmd)
		if done {
			m.finder = nil
		}
		if chosen != nil {
			m.explorer.OnToggle(chosen, true)
		}
		return false
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return true

	case key.Matches(msg, keys.Hide):
		m.hidden = !m.hidden
		if m.hidden {
			m.setHover(-1)
		}
		m.resizeViewport()
		return false

	case key.Matches(msg, keys.Save):
		m.save()
		return false

	case key.Matches(msg, keys.Edit):
		m.editActive()
		return false

	case key.Matches(msg, keys.Find):
		m.finder = newFinder(m.roots, m.leafLabel)
		return false

	case key.Matches(msg, keys.PageUp):
		m.viewport.HalfViewUp()
		return false

	case key.Matches(msg, keys.PageDown):
		m.viewport.HalfViewDown()
		return false
	}

	if m.hidden {
		return false
	}

	switch {
	case key.Matches(msg, keys.NextSection):
		m.setFocus(m.focus + 1)

	case key.Matches(msg, keys.PrevSection):
		m.setFocus(m.focus - 1)

	case key.Matches(msg, keys.Up):
		if m.cursors[m.focus] > 0 {
			m.cursors[m.focus]--
		}

	case key.Matches(msg, keys.Down):
		if m.cursors[m.focus] < len(m.rows(m.focus))-1 {
			m.cursors[m.focus]++
		}

	case key.Matches(msg, keys.Toggle):
		m.toggleRow(m.focus, m.cursors[m.focus], true)

	case key.Matches(msg, keys.Collapse):
		m.toggleRow(m.focus, m.cursors[m.focus], false)

	default:
		section := m.sections()[m.focus]
		if tool, ok := section.Header().ToolForKey(msg.String()); ok {
			m.pressTool(m.focus, tool.Name)
		}
	}
	m.followCursor()
	return false
}

// toggleRow acts on a visible row. Directories flip (or collapse when
// open is false); leaves are selected.
func (m *Model) toggleRow(section, row int, open bool) {
	rows := m.rows(section)
	if row < 0 || row >= len(rows) {
		return
	}

	node := rows[row].Node
	toggled := true
	if d, ok := node.(*tree.Directory); ok {
		if open {
			toggled = !d.Toggled
		} else if !d.Toggled {
			return
		} else {
			toggled = false
		}
	} else if !open {
		return
	}

	s := m.sections()[section]
	if err := s.Toggle(node, toggled); err != nil {
		m.reportUnwired(s, err)
	}
}

func (m *Model) pressTool(section int, name string) {
	s := m.sections()[section]
	if err := s.ClickTool(name); err != nil {
		m.reportUnwired(s, err)
		return
	}
	if name == explorer.ToolNewFolder {
		m.setStatus(fmt.Sprintf("%s: %v", name, explorer.ErrUnimplemented), false)
	}
}

func (m *Model) reportUnwired(s *explorer.Section, err error) {
	if errors.Is(err, explorer.ErrUnwired) {
		m.setStatus(s.Name()+": section is read-only", false)
		return
	}
	m.fail(s.Name(), err)
}

func (m *Model) leafLabel(l *tree.Leaf) string {
	if name, err := dust.ResourceName(m.rootURL(), l.URL); err == nil {
		return name
	}
	return l.Name
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	if m.modal != nil || m.finder != nil || m.hidden {
		return
	}

	target := m.targetAt(msg.X, msg.Y)
	m.setHover(target.section)

	if msg.Action == tea.MouseActionPress && msg.X < explorerWidth {
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.scroll--
			m.clampScroll(len(m.layout()))
			return
		case tea.MouseButtonWheelDown:
			m.scroll++
			m.clampScroll(len(m.layout()))
			return
		}
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft || target.section < 0 {
		return
	}
	m.focus = target.section

	switch target.kind {
	case lineHeader:
		if target.tool != "" {
			m.pressTool(target.section, target.tool)
		}
	case lineRow:
		m.cursors[target.section] = target.row
		m.toggleRow(target.section, target.row, true)
	}
}

// --- layout ---

type lineKind int

const (
	lineBlank lineKind = iota
	lineHeader
	lineRow
	lineEmpty
)

// line is one rendered line of the explorer pane and what it maps to
// for pointer events.
type line struct {
	text    string
	kind    lineKind
	section int
	row     int
	// toolX holds the starting column of each tool icon on a header.
	toolX []int
}

type target struct {
	kind    lineKind
	section int
	row     int
	tool    string
}

// paneOffset is where explorer content starts inside its border.
const (
	paneOffsetX = 2
	paneOffsetY = 1
)

func (m *Model) layout() []line {
	var lines []line
	for i, s := range m.sections() {
		if i > 0 {
			lines = append(lines, line{kind: lineBlank, section: -1})
		}

		header := s.Header()
		text := explorer.RenderHeader(header, m.styles)
		x := lipgloss.Width(m.styles.SectionName.Render(strings.ToUpper(header.Name))) + 1
		toolX := make([]int, len(header.Tools))
		for j, t := range header.Tools {
			toolX[j] = x
			x += lipgloss.Width(t.Icon) + 1
		}
		lines = append(lines, line{text: ansi.Truncate(text, paneContentWidth, ""), kind: lineHeader, section: i, toolX: toolX})

		rows := m.rows(i)
		if len(rows) == 0 {
			lines = append(lines, line{text: emptyStyle.Render("  (empty)"), kind: lineEmpty, section: i})
			continue
		}
		for r, row := range rows {
			lines = append(lines, line{
				text:    ansi.Truncate(m.renderRow(i, r, row), paneContentWidth, "…"),
				kind:    lineRow,
				section: i,
				row:     r,
			})
		}
	}
	return lines
}

func (m *Model) renderRow(section, r int, row tree.Row) string {
	indent := strings.Repeat("  ", row.Depth)
	toggle := explorer.Toggle{Height: 1, Width: 1}
	glyph := " "
	if d, ok := row.Node.(*tree.Directory); ok {
		glyph = m.styles.Toggle.Render(toggle.Glyph(d.Toggled))
	}

	prefix := "  "
	if section == m.focus && r == m.cursors[section] && !m.hidden {
		prefix = cursorStyle.Render("› ")
	}
	return prefix + indent + glyph + " " + explorer.RenderNode(row.Node, m.styles)
}

func (m *Model) targetAt(x, y int) target {
	none := target{section: -1}
	if m.hidden || x >= explorerWidth {
		return none
	}

	lines := m.layout()
	i := y - paneOffsetY
	if i < 0 || i >= m.paneRows() {
		return none
	}
	i += m.scroll
	if i >= len(lines) {
		return none
	}

	l := lines[i]
	t := target{kind: l.kind, section: l.section, row: l.row}
	if l.kind == lineHeader {
		col := x - paneOffsetX
		header := m.sections()[l.section].Header()
		for j, start := range l.toolX {
			if col >= start && col < start+lipgloss.Width(header.Tools[j].Icon) {
				t.tool = header.Tools[j].Name
			}
		}
	}
	return t
}

// paneRows is the number of layout lines the explorer pane can show.
func (m *Model) paneRows() int {
	if h := m.height - 5; h > 0 {
		return h
	}
	return 1
}

func (m *Model) clampScroll(lines int) {
	if last := lines - m.paneRows(); m.scroll > last {
		m.scroll = last
	}
	if m.scroll < 0 {
		m.scroll = 0
	}
}

// followCursor scrolls the explorer pane so the focused cursor row, or
// the focused header for an empty section, is on screen.
func (m *Model) followCursor() {
	lines := m.layout()
	at := -1
	for i, l := range lines {
		if l.section != m.focus {
			continue
		}
		if l.kind == lineHeader && at < 0 {
			at = i
		}
		if l.kind == lineRow && l.row == m.cursors[m.focus] {
			at = i
			break
		}
	}
	if at >= 0 {
		h := m.paneRows()
		if at < m.scroll {
			m.scroll = at
		}
		if at >= m.scroll+h {
			m.scroll = at - h + 1
		}
	}
	m.clampScroll(len(lines))
}

func (m *Model) resizeViewport() {
	w := m.width - 4
	if !m.hidden {
		w -= explorerWidth
	}
	h := m.height - 6
	if w < 10 {
		w = 10
	}
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

func (m *Model) showBuffer() {
	b, ok := m.buffers[m.activeBuffer]
	if !ok || !b.loaded {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(string(b.data))
	m.viewport.GotoTop()
}

func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.modal != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.modal.View())
	}
	if m.finder != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.finder.View())
	}

	paneHeight := m.height - 3
	var panes []string
	if !m.hidden {
		var texts []string
		lines := m.layout()
		for i := m.scroll; i < len(lines) && i < m.scroll+m.paneRows(); i++ {
			texts = append(texts, lines[i].text)
		}
		panes = append(panes, paneStyle.Width(explorerWidth-2).Height(paneHeight-2).Render(strings.Join(texts, "\n")))
	}
	panes = append(panes, paneStyle.Width(m.viewport.Width+2).Height(paneHeight-2).Render(m.bufferView()))

	main := lipgloss.JoinHorizontal(lipgloss.Top, panes...)
	status := helpStyle.Render("tab: section • enter: open • a/x/d/n/r: tools • e: edit • /: find • ctrl+s: save • ctrl+b: explorer • q: quit")
	if m.message != "" {
		if m.messageIsError {
			status = errorStyle.Render(m.message)
		} else {
			status = m.message
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, main, status)
}

func (m *Model) bufferView() string {
	b, ok := m.buffers[m.activeBuffer]
	if m.activeBuffer == "" || !ok {
		return emptyStyle.Render("no buffer selected")
	}

	title := dust.Base(b.url)
	if b.modified {
		title += " ●"
	}
	if b.virtual {
		title += " (unsaved)"
	}

	var sb strings.Builder
	sb.WriteString(bufferTitleStyle.Render(title) + "\n")
	if b.outline != nil {
		summary := b.outline.Summary()
		if b.outline.HasError {
			summary = strings.TrimSpace(summary + "  " + errorStyle.Render("syntax error"))
		}
		sb.WriteString(outlineStyle.Render(summary) + "\n")
	}
	sb.WriteString(m.viewport.View())
	return sb.String()
}

// Run starts the explorer on the terminal.
func Run(ctx context.Context, opts Options) error {
	lipgloss.SetDefaultRenderer(lipgloss.NewRenderer(os.Stdout, termenv.WithColorCache(true)))

	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion(), tea.WithContext(ctx))

	_, err := p.Run()
	if m.watcher != nil {
		m.watcher.Close()
	}
	return err
}
