package tui

import (
	"reflect"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestModelCopyPasteRoundTripThroughPort(t *testing.T) {
	port := &memoryPort{}
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc, WithClipboard(port)))
	if view := m.viewContent(); !strings.Contains(view, "Pump A") || !strings.Contains(view, "Pump B") {
		t.Fatalf("expected rendered rows, got\n%s", view)
	}

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, keyRune('y'))
	if m.status != "copied 1x1" || port.text != "P-101" {
		t.Fatalf("unexpected copy status %q text %q", m.status, port.text)
	}

	m = applyMsg(t, m, keyRune('j'))
	m = applyMsg(t, m, keyRune('p'))
	if m.status != "pasted 1 cells" {
		t.Fatalf("unexpected paste status %q", m.status)
	}
	if got := svc.records[2].Code; got != "P-101" {
		t.Fatalf("expected pasted code on Pump B, got %q", got)
	}

	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit key to stop the program")
	}
}

func TestModelTerminalClipboardEmitsSetClipboard(t *testing.T) {
	port := &memoryPort{}
	svc := newFakeService(sampleRecords(t), sampleColumns(t))
	m := loadReadyModel(t, NewModel(svc, WithClipboard(port), WithTerminalClipboard()))
	m = applyMsg(t, m, keyRune('j'))

	updated, copyCmd := m.Update(keyRune('y'))
	m = updated.(Model)
	if copyCmd == nil {
		t.Fatal("expected copy command")
	}
	updated, setCmd := m.Update(copyCmd())
	m = updated.(Model)
	if setCmd == nil {
		t.Fatal("expected the copy to hand its text to the program")
	}
	if got, want := setCmd(), tea.SetClipboard("Pump A")(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected clipboard message %#v, want %#v", got, want)
	}
	if m.status != "copied 1x1" || port.text != "Pump A" {
		t.Fatalf("unexpected status %q port %q", m.status, port.text)
	}

	plain := loadReadyModel(t, NewModel(svc, WithClipboard(&memoryPort{})))
	plain = applyMsg(t, plain, keyRune('j'))
	_, copyCmd = plain.Update(keyRune('y'))
	if _, cmd := plain.Update(copyCmd()); cmd != nil {
		t.Fatal("expected no terminal clipboard command without the option")
	}
}
