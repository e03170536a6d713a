package roles

import (
	"testing"
)

func reconcilerFor(rig *testRig) *Reconciler {
	return NewReconciler(rig.store, rig.authority, rig.projector, rig.cfg)
}

func TestReconcileRemovesOrphansAndResyncsNames(t *testing.T) {
	rig := newTestRig()
	group, _ := rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	orphan := rig.addLiveRole("r1", "Doomed", 1)
	drifted := rig.addLiveRole("r2", "OldName", 1)
	if _, err := rig.registry.TrackRole(testGuild, orphan, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	if _, err := rig.registry.TrackRole(testGuild, drifted, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	if _, err := rig.registry.RegisterWidget(testGuild, "chan1", "msg1", group.ID); err != nil {
		t.Fatalf("Failed to register widget: %v", err)
	}

	//Drift: one role deleted out from under us, one renamed.
	delete(rig.authority.liveRoles, "r1")
	rig.authority.liveRoles["r2"] = ExternalRole{ID: "r2", Name: "NewName", Position: 1}
	rig.authority.edits = nil

	result, err := reconcilerFor(rig).Reconcile(testGuild)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Deleted != 1 || result.Renamed != 1 {
		t.Errorf("Expected 1 deletion and 1 rename, got %v and %v", result.Deleted, result.Renamed)
	}
	if record, _ := rig.store.GetRoleByRoleID("r1"); record != nil {
		t.Errorf("Expected orphaned record removed, got %v", record)
	}
	record, _ := rig.store.GetRoleByRoleID("r2")
	if record == nil || record.Name != "NewName" {
		t.Errorf("Expected drifted name resynced to NewName, got %v", record)
	}
	//Both changes touch the same group: its selector is re-rendered once.
	if len(rig.authority.edits) != 1 {
		t.Errorf("Expected exactly one selector re-render, got %v", len(rig.authority.edits))
	}
}

func TestReconcileDirtyGroupProjectedOnce(t *testing.T) {
	rig := newTestRig()
	group, _ := rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	a := rig.addLiveRole("r1", "A", 1)
	b := rig.addLiveRole("r2", "B", 1)
	if _, err := rig.registry.TrackRole(testGuild, a, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	if _, err := rig.registry.TrackRole(testGuild, b, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	if _, err := rig.registry.RegisterWidget(testGuild, "chan1", "msg1", group.ID); err != nil {
		t.Fatalf("Failed to register widget: %v", err)
	}

	delete(rig.authority.liveRoles, "r1")
	delete(rig.authority.liveRoles, "r2")
	rig.authority.edits = nil

	result, err := reconcilerFor(rig).Reconcile(testGuild)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Deleted != 2 {
		t.Errorf("Expected both records removed, got %v", result.Deleted)
	}
	if len(rig.authority.edits) != 1 {
		t.Errorf("Expected the shared group re-rendered exactly once, got %v", len(rig.authority.edits))
	}
	//With nothing left to assign the widget shows the empty notice.
	if rig.authority.edits[0].content != emptySelectorNotice {
		t.Errorf("Expected empty-group notice, got %q", rig.authority.edits[0].content)
	}
}

func TestReconcileNoDriftIsQuiet(t *testing.T) {
	rig := newTestRig()
	_, _ = rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	role := rig.addLiveRole("r1", "Stable", 1)
	if _, err := rig.registry.TrackRole(testGuild, role, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	rig.authority.edits = nil

	result, err := reconcilerFor(rig).Reconcile(testGuild)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.Deleted != 0 || result.Renamed != 0 {
		t.Errorf("Expected no drift, got %v deleted and %v renamed", result.Deleted, result.Renamed)
	}
	if len(rig.authority.edits) != 0 {
		t.Errorf("Expected no selector edits without drift, got %v", len(rig.authority.edits))
	}
}

func TestOnRoleDeletedRemovesRecordImmediately(t *testing.T) {
	rig := newTestRig()
	_, _ = rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	role := rig.addLiveRole("r1", "Doomed", 1)
	if _, err := rig.registry.TrackRole(testGuild, role, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	delete(rig.authority.liveRoles, "r1")

	reconcilerFor(rig).OnRoleDeleted(testGuild, "r1")
	if record, _ := rig.store.GetRoleByRoleID("r1"); record != nil {
		t.Errorf("Expected record removed on gateway delete, got %v", record)
	}

	//A delete for an untracked role is a no-op.
	reconcilerFor(rig).OnRoleDeleted(testGuild, "unknown")
}

func TestOnRoleUpdatedResyncsDriftedName(t *testing.T) {
	rig := newTestRig()
	_, _ = rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	role := rig.addLiveRole("r1", "OldName", 1)
	if _, err := rig.registry.TrackRole(testGuild, role, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	rig.authority.edits = nil

	reconcilerFor(rig).OnRoleUpdated(testGuild, "r1", "NewName")
	record, _ := rig.store.GetRoleByRoleID("r1")
	if record == nil || record.Name != "NewName" {
		t.Errorf("Expected name resynced to NewName, got %v", record)
	}

	//An update that changes nothing must not touch storage or selectors.
	edits := len(rig.authority.edits)
	reconcilerFor(rig).OnRoleUpdated(testGuild, "r1", "NewName")
	if len(rig.authority.edits) != edits {
		t.Errorf("Expected no re-render for a no-op update")
	}
}
