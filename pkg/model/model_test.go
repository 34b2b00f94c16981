package model

import "testing"

func TestStatusBlocked(t *testing.T) {
	blocked := []QueryStatus{
		StatusGravity, StatusWildcard, StatusBlacklist,
		StatusExternalBlockedIP, StatusExternalBlockedNull, StatusExternalBlockedNXRA,
	}
	for _, s := range blocked {
		if !s.Blocked() {
			t.Errorf("expected %s to be blocked", s)
		}
	}
	for _, s := range []QueryStatus{StatusUnknown, StatusForwarded, StatusCache} {
		if s.Blocked() {
			t.Errorf("expected %s not to be blocked", s)
		}
	}
}

func TestTypeValid(t *testing.T) {
	if QueryType(0).Valid() {
		t.Error("type 0 should be invalid")
	}
	if TypeMax.Valid() {
		t.Error("TypeMax should be invalid")
	}
	for qt := TypeA; qt < TypeMax; qt++ {
		if !qt.Valid() {
			t.Errorf("expected %s to be valid", qt)
		}
	}
}

func TestStatusValid(t *testing.T) {
	if QueryStatus(-1).Valid() {
		t.Error("negative status should be invalid")
	}
	if QueryStatus(9).Valid() {
		t.Error("status 9 should be invalid")
	}
	if !StatusExternalBlockedNXRA.Valid() {
		t.Error("last status should be valid")
	}
}
