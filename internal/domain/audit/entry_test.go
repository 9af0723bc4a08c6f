package audit

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSummarizeTruncates(t *testing.T) {
	long := strings.Repeat("x", ResultSummaryLimit+50)
	if got := Summarize(long); len(got) != ResultSummaryLimit {
		t.Errorf("len(Summarize(long)) = %d, want %d", len(got), ResultSummaryLimit)
	}
	if got := Summarize("short"); got != "short" {
		t.Errorf("Summarize(short) = %q", got)
	}
}

func TestSummarizeKeepsRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", ResultSummaryLimit+50)
	got := Summarize(long)
	if !utf8.ValidString(got) {
		t.Fatalf("Summarize split a multi-byte sequence: %q", got[len(got)-4:])
	}
	if n := utf8.RuneCountInString(got); n != ResultSummaryLimit {
		t.Errorf("rune count = %d, want %d", n, ResultSummaryLimit)
	}
}

func TestCapabilityCallEntry(t *testing.T) {
	e := CapabilityCall("payments-agent", "execute_payment_retry",
		map[string]any{"payment_id": "p-1"}, strings.Repeat("r", 300), nil)

	if e.Kind != KindCapabilityCall {
		t.Errorf("Kind = %q", e.Kind)
	}
	if e.AgentID != "payments-agent" {
		t.Errorf("AgentID = %q", e.AgentID)
	}
	summary, _ := e.Payload["result_summary"].(string)
	if len(summary) != ResultSummaryLimit {
		t.Errorf("result_summary length = %d, want %d", len(summary), ResultSummaryLimit)
	}
	if _, hasErr := e.Payload["error"]; hasErr {
		t.Error("error key present on successful call")
	}
}

func TestCapabilityCallEntryRecordsError(t *testing.T) {
	e := CapabilityCall("a", "tool", nil, "", errors.New("boom"))
	if e.Payload["error"] != "boom" {
		t.Errorf("error payload = %v", e.Payload["error"])
	}
}

func TestInvocationEntryNamesBothAgents(t *testing.T) {
	e := Invocation("caller-a", "callee-b", false, "not allowed")
	if e.Payload["caller_id"] != "caller-a" || e.Payload["callee_id"] != "callee-b" {
		t.Errorf("payload = %v, want both identifiers", e.Payload)
	}
	if e.Payload["authorized"] != false {
		t.Errorf("authorized = %v, want false", e.Payload["authorized"])
	}
	if e.AgentID != "caller-a" {
		t.Errorf("AgentID = %q, want caller", e.AgentID)
	}
}

func TestDecisionEntryNilContext(t *testing.T) {
	e := Decision("a", "retry approved", nil)
	if e.Payload["context"] == nil {
		t.Error("nil context should be normalized to empty map")
	}
}
