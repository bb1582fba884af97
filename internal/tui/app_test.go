package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/tormodhaugland/maiden/internal/dust"
	"github.com/tormodhaugland/maiden/internal/explorer"
	"github.com/tormodhaugland/maiden/internal/session"
	"github.com/tormodhaugland/maiden/internal/testutil"
	"github.com/tormodhaugland/maiden/internal/tree"
)

const demoScript = `-- demo

function init()
  print("hi")
end

local function helper()
end

function redraw()
end
`

var (
	scriptsURL = dust.DefaultPrefix + "/scripts"
	demoURL    = scriptsURL + "/demo.lua"
)

func writeFixture(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	files := map[string]string{
		"scripts/demo.lua":     demoScript,
		"scripts/lib/util.lua": "return {}\n",
		"data/notes.txt":       "notes\n",
		"readme.md":            "# dust\n",
	}
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

func newTestModel(t *testing.T, root string, db *session.DB) *Model {
	t.Helper()

	m := New(context.Background(), Options{
		Store:   dust.NewLocalStore(root, nil),
		Session: db,
		Logger:  testutil.NewTestLogger(t),
	})
	send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	drive(t, m, m.Init())
	return m
}

// drive runs cmd and every command it produces, feeding the resulting
// messages back into the model.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()

	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 500 {
			t.Fatalf("command queue did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func send(t *testing.T, m *Model, msg tea.Msg) {
	t.Helper()
	_, cmd := m.Update(msg)
	drive(t, m, cmd)
}

func press(t *testing.T, m *Model, names ...string) {
	t.Helper()
	for _, k := range names {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		case "ctrl+b":
			msg = tea.KeyMsg{Type: tea.KeyCtrlB}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		send(t, m, msg)
	}
}

// openRow moves the cursor of the focused section to url and presses
// enter on it.
func openRow(t *testing.T, m *Model, url string) {
	t.Helper()
	for i, row := range m.rows(m.focus) {
		if row.Node.Base().URL == url {
			m.cursors[m.focus] = i
			press(t, m, "enter")
			return
		}
	}
	t.Fatalf("%s is not a visible row", url)
}

func exists(root, name string) bool {
	_, err := os.Stat(filepath.Join(root, filepath.FromSlash(name)))
	return err == nil
}

func TestInitListsRoot(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	var names []string
	for _, n := range m.roots {
		names = append(names, n.Base().Name)
	}
	if got := strings.Join(names, ","); got != "data,readme.md,scripts" {
		t.Fatalf("roots = %s", got)
	}
	if m.explorer.Props().API == nil {
		t.Fatalf("explorer has no store")
	}
}

func TestToggleDirectoryLoadsChildren(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	openRow(t, m, scriptsURL)

	dir := tree.FindDir(m.roots, scriptsURL)
	if !dir.Toggled || !dir.Loaded {
		t.Fatalf("scripts toggled=%v loaded=%v", dir.Toggled, dir.Loaded)
	}
	if tree.Find(m.roots, demoURL) == nil {
		t.Fatalf("demo.lua not listed")
	}

	openRow(t, m, scriptsURL)
	if dir.Toggled {
		t.Fatalf("second toggle should collapse")
	}
	if len(m.rows(0)) != 3 {
		t.Fatalf("collapsed rows = %d", len(m.rows(0)))
	}
}

func TestSelectLeafOpensBuffer(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	openRow(t, m, scriptsURL)
	openRow(t, m, demoURL)

	if m.activeBuffer != demoURL {
		t.Fatalf("active = %q", m.activeBuffer)
	}
	b := m.buffers[demoURL]
	if b == nil || !b.loaded || string(b.data) != demoScript {
		t.Fatalf("buffer not loaded: %+v", b)
	}
	if b.outline == nil || len(b.outline.Symbols) < 2 || b.outline.Symbols[0].Name != "init" {
		t.Fatalf("outline = %+v", b.outline)
	}
	if !tree.Find(m.roots, demoURL).Base().Active {
		t.Fatalf("leaf not marked active")
	}
	if !strings.Contains(m.View(), "demo.lua") {
		t.Fatalf("view does not show buffer title")
	}
}

func TestAddCreatesVirtualScripts(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	press(t, m, "a")

	first := scriptsURL + "/untitled.lua"
	if m.activeBuffer != first {
		t.Fatalf("active = %q", m.activeBuffer)
	}
	leaf := tree.Find(m.roots, first)
	if leaf == nil || !leaf.Base().Virtual || !leaf.Base().Modified {
		t.Fatalf("virtual leaf missing: %+v", leaf)
	}
	if !tree.FindDir(m.roots, scriptsURL).Toggled {
		t.Fatalf("parent should expand")
	}
	if exists(root, "scripts/untitled.lua") {
		t.Fatalf("virtual script written to disk")
	}

	press(t, m, "a")
	if m.activeBuffer != scriptsURL+"/untitled-2.lua" {
		t.Fatalf("second script = %q", m.activeBuffer)
	}
	if tree.Find(m.roots, first) == nil {
		t.Fatalf("first virtual script lost")
	}
}

func TestSaveWritesVirtualScript(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	press(t, m, "a", "ctrl+s")

	if !exists(root, "scripts/untitled.lua") {
		t.Fatalf("script not saved")
	}
	a := tree.Find(m.roots, scriptsURL+"/untitled.lua").Base()
	if a.Virtual || a.Modified {
		t.Fatalf("saved leaf still virtual=%v modified=%v", a.Virtual, a.Modified)
	}
}

func TestDuplicateCopiesActiveScript(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	openRow(t, m, scriptsURL)
	openRow(t, m, demoURL)
	press(t, m, "d")

	data, err := os.ReadFile(filepath.Join(root, "scripts", "demo-copy.lua"))
	if err != nil {
		t.Fatalf("copy not written: %v", err)
	}
	if string(data) != demoScript {
		t.Fatalf("copy content = %q", data)
	}
	if m.activeBuffer != scriptsURL+"/demo-copy.lua" {
		t.Fatalf("active = %q", m.activeBuffer)
	}
}

func TestRemoveAsksBeforeDeleting(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	openRow(t, m, scriptsURL)
	openRow(t, m, demoURL)

	press(t, m, "x")
	if _, ok := m.modal.(*confirmView); !ok {
		t.Fatalf("modal = %T", m.modal)
	}
	if !strings.Contains(m.View(), `Delete "demo.lua"?`) {
		t.Fatalf("confirm message missing")
	}

	press(t, m, "n")
	if m.modal != nil {
		t.Fatalf("modal still open after cancel")
	}
	if !exists(root, "scripts/demo.lua") {
		t.Fatalf("cancel deleted the file")
	}

	press(t, m, "x", "y")
	if m.modal != nil {
		t.Fatalf("modal still open after confirm")
	}
	if exists(root, "scripts/demo.lua") {
		t.Fatalf("file not deleted")
	}
	if tree.Find(m.roots, demoURL) != nil || m.activeBuffer != "" {
		t.Fatalf("deleted script still referenced")
	}
}

func TestRemoveDiscardsVirtualScript(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	press(t, m, "a", "x", "y")

	if tree.Find(m.roots, scriptsURL+"/untitled.lua") != nil {
		t.Fatalf("virtual script not discarded")
	}
	if !exists(root, "scripts/demo.lua") {
		t.Fatalf("discard touched the disk")
	}
}

func TestRemoveWithoutSelectionShowsNothing(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	press(t, m, "x", "r")
	if m.modal != nil {
		t.Fatalf("modal = %T", m.modal)
	}
}

func TestRenameMovesFile(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	openRow(t, m, scriptsURL)
	openRow(t, m, demoURL)
	press(t, m, "r")

	v, ok := m.modal.(*renameView)
	if !ok {
		t.Fatalf("modal = %T", m.modal)
	}
	if v.input.Value() != "demo.lua" {
		t.Fatalf("initial name = %q", v.input.Value())
	}
	v.input.SetValue("main.lua")
	press(t, m, "enter")

	if m.modal != nil {
		t.Fatalf("modal still open")
	}
	if exists(root, "scripts/demo.lua") || !exists(root, "scripts/main.lua") {
		t.Fatalf("file not renamed on disk")
	}
	if m.activeBuffer != scriptsURL+"/main.lua" {
		t.Fatalf("active = %q", m.activeBuffer)
	}
	if tree.Find(m.roots, scriptsURL+"/main.lua") == nil {
		t.Fatalf("renamed leaf missing")
	}
}

func TestRenameBlankLeavesFile(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	openRow(t, m, scriptsURL)
	openRow(t, m, demoURL)
	press(t, m, "r")
	m.modal.(*renameView).input.SetValue("   ")
	press(t, m, "enter")

	if m.modal != nil {
		t.Fatalf("modal still open")
	}
	if !exists(root, "scripts/demo.lua") || m.activeBuffer != demoURL {
		t.Fatalf("blank rename changed something")
	}
}

func TestRenameVirtualStaysInMemory(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	press(t, m, "a", "r")
	m.modal.(*renameView).input.SetValue("synth.lua")
	press(t, m, "enter")

	if m.activeBuffer != scriptsURL+"/synth.lua" {
		t.Fatalf("active = %q", m.activeBuffer)
	}
	if exists(root, "scripts/synth.lua") {
		t.Fatalf("virtual rename wrote to disk")
	}
	if b := m.buffers[scriptsURL+"/synth.lua"]; b == nil || !b.virtual {
		t.Fatalf("buffer not moved: %+v", b)
	}
}

func TestNewFolderDoesNothing(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	press(t, m, "n")

	if !strings.Contains(m.message, explorer.ErrUnimplemented.Error()) {
		t.Fatalf("status = %q", m.message)
	}
	if m.modal != nil || len(m.roots) != 3 {
		t.Fatalf("new-folder had an effect")
	}
}

func TestDataSectionIsReadOnly(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	press(t, m, "tab")
	if m.focus != 1 {
		t.Fatalf("focus = %d", m.focus)
	}
	openRow(t, m, scriptsURL)

	if tree.FindDir(m.roots, scriptsURL).Toggled {
		t.Fatalf("data section toggled a directory")
	}
	if !strings.Contains(m.message, "read-only") {
		t.Fatalf("status = %q", m.message)
	}

	press(t, m, "a")
	if m.activeBuffer != "" {
		t.Fatalf("data section created a script")
	}
}

func TestPointerDrivesToolVisibility(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)
	sections := m.explorer.Sections()

	headerY := func(section int) int {
		for i, l := range m.layout() {
			if l.kind == lineHeader && l.section == section {
				return i + paneOffsetY
			}
		}
		t.Fatalf("no header for section %d", section)
		return 0
	}
	move := func(x, y int) {
		send(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone})
	}

	move(5, headerY(0))
	if !sections[0].ToolsVisible() {
		t.Fatalf("scripts tools hidden under pointer")
	}

	move(5, headerY(1))
	if sections[0].ToolsVisible() || !sections[1].ToolsVisible() {
		t.Fatalf("hover did not move to data")
	}

	move(explorerWidth+10, headerY(1))
	for _, s := range sections {
		if s.ToolsVisible() {
			t.Fatalf("%s tools visible with pointer outside", s.Name())
		}
	}
}

func TestHeaderToolClick(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)

	var header line
	y := -1
	for i, l := range m.layout() {
		if l.kind == lineHeader && l.section == 0 {
			header, y = l, i+paneOffsetY
		}
	}
	// the add tool comes first
	send(t, m, tea.MouseMsg{
		X:      header.toolX[0] + paneOffsetX,
		Y:      y,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})

	if m.activeBuffer != scriptsURL+"/untitled.lua" {
		t.Fatalf("click did not create a script, active = %q", m.activeBuffer)
	}
}

func TestRowClickTogglesDirectory(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	for i, l := range m.layout() {
		if l.kind == lineRow && l.section == 0 && m.rows(0)[l.row].Node.Base().URL == scriptsURL {
			send(t, m, tea.MouseMsg{X: 6, Y: i + paneOffsetY, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
			break
		}
	}
	if !tree.FindDir(m.roots, scriptsURL).Toggled {
		t.Fatalf("click did not expand scripts")
	}
}

func TestFinderSelectsLeaf(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	openRow(t, m, scriptsURL)
	press(t, m, "/")
	if m.finder == nil {
		t.Fatalf("finder not open")
	}
	press(t, m, "d", "e", "m", "o", "enter")

	if m.finder != nil {
		t.Fatalf("finder still open")
	}
	if m.activeBuffer != demoURL {
		t.Fatalf("active = %q", m.activeBuffer)
	}
}

func TestHideExplorer(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	press(t, m, "ctrl+b")
	if !m.explorer.Hidden() {
		t.Fatalf("explorer not hidden")
	}
	send(t, m, tea.MouseMsg{X: 5, Y: paneOffsetY, Action: tea.MouseActionMotion})
	if m.explorer.Sections()[0].ToolsVisible() {
		t.Fatalf("hidden explorer reacted to pointer")
	}

	press(t, m, "ctrl+b")
	if m.explorer.Hidden() {
		t.Fatalf("explorer not shown again")
	}
}

func TestSessionRestoresState(t *testing.T) {
	root := writeFixture(t)
	db, err := session.Open(filepath.Join(t.TempDir(), "session.db"), root)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m := newTestModel(t, root, db)
	openRow(t, m, scriptsURL)
	openRow(t, m, scriptsURL+"/lib")
	openRow(t, m, demoURL)

	restored := newTestModel(t, root, db)
	for _, url := range []string{scriptsURL, scriptsURL + "/lib"} {
		d := tree.FindDir(restored.roots, url)
		if d == nil || !d.Toggled || !d.Loaded {
			t.Fatalf("%s not restored: %+v", url, d)
		}
	}
	if restored.activeBuffer != demoURL {
		t.Fatalf("active = %q", restored.activeBuffer)
	}
	if b := restored.buffers[demoURL]; b == nil || !b.loaded {
		t.Fatalf("active buffer not reloaded")
	}
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// screenLine returns the first line of the rendered view containing text.
func screenLine(t *testing.T, m *Model, text string) (int, string) {
	t.Helper()
	for i, l := range strings.Split(ansi.Strip(m.View()), "\n") {
		if strings.Contains(l, text) {
			return i, l
		}
	}
	t.Fatalf("%q is not on screen", text)
	return 0, ""
}

func click(t *testing.T, m *Model, x, y int) {
	t.Helper()
	send(t, m, tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

func TestLongNamesKeepRowsOnOneLine(t *testing.T) {
	root := writeFixture(t)
	writeFile(t, root, "a_really_long_script_name_that_wraps_the_pane.lua", "")
	m := newTestModel(t, root, nil)

	for _, l := range m.layout() {
		if w := lipgloss.Width(l.text); w > paneContentWidth {
			t.Fatalf("line %q is %d wide", l.text, w)
		}
	}

	y, _ := screenLine(t, m, "▸ scripts")
	click(t, m, 6, y)
	if !tree.FindDir(m.roots, scriptsURL).Toggled {
		t.Fatalf("click on the scripts row missed it")
	}
	if m.activeBuffer != "" {
		t.Fatalf("click selected %q", m.activeBuffer)
	}
}

func TestExplorerScrollsWithCursor(t *testing.T) {
	root := writeFixture(t)
	for i := 0; i < 40; i++ {
		writeFile(t, root, fmt.Sprintf("scripts/song-%02d.lua", i), "")
	}
	m := newTestModel(t, root, nil)
	send(t, m, tea.WindowSizeMsg{Width: 120, Height: 20})

	openRow(t, m, scriptsURL)
	for last := len(m.rows(0)) - 1; m.cursors[0] < last; {
		press(t, m, "j")
	}
	if m.scroll == 0 {
		t.Fatalf("pane did not scroll")
	}

	y, text := screenLine(t, m, "song-39.lua")
	if !strings.Contains(text, "›") {
		t.Fatalf("cursor not drawn on the last row: %q", text)
	}
	click(t, m, 8, y)
	if m.activeBuffer != scriptsURL+"/song-39.lua" {
		t.Fatalf("click on scrolled row selected %q", m.activeBuffer)
	}

	before := m.scroll
	send(t, m, tea.MouseMsg{X: 5, Y: 3, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if m.scroll != before-1 {
		t.Fatalf("wheel scroll = %d, want %d", m.scroll, before-1)
	}
}

func TestSaveRevealsNewDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "readme.md", "# dust\n")
	m := newTestModel(t, root, nil)

	url := scriptsURL + "/untitled.lua"
	press(t, m, "a")
	if m.activeBuffer != url {
		t.Fatalf("active = %q", m.activeBuffer)
	}

	press(t, m, "ctrl+s")
	if !exists(root, "scripts/untitled.lua") {
		t.Fatalf("script not saved")
	}
	if d := tree.FindDir(m.roots, scriptsURL); d == nil || !d.Toggled {
		t.Fatalf("new scripts dir not shown: %+v", d)
	}
	if tree.Find(m.roots, url) == nil {
		t.Fatalf("saved script not listed")
	}
}

func TestEditorArgv(t *testing.T) {
	t.Setenv("EDITOR", "nano")
	if got := editorArgv("code -w"); strings.Join(got, " ") != "code -w" {
		t.Fatalf("configured editor = %q", got)
	}
	if got := editorArgv(""); strings.Join(got, " ") != "nano" {
		t.Fatalf("env editor = %q", got)
	}
	t.Setenv("EDITOR", "")
	if got := editorArgv(" "); strings.Join(got, " ") != "vi" {
		t.Fatalf("fallback editor = %q", got)
	}
}

func TestEditReloadsBuffer(t *testing.T) {
	root := writeFixture(t)
	m := newTestModel(t, root, nil)
	m.editor = "true"

	openRow(t, m, scriptsURL)
	openRow(t, m, demoURL)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")}); cmd == nil {
		t.Fatalf("edit did not launch the editor")
	}

	writeFile(t, root, "scripts/demo.lua", "function init() end\n")
	send(t, m, editedMsg{url: demoURL})
	if got := string(m.buffers[demoURL].data); got != "function init() end\n" {
		t.Fatalf("buffer after edit = %q", got)
	}
}

func TestEditNeedsSavedScript(t *testing.T) {
	m := newTestModel(t, writeFixture(t), nil)

	press(t, m, "a", "e")
	if !strings.Contains(m.message, "before editing") {
		t.Fatalf("status = %q", m.message)
	}
}
