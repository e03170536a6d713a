package roles

import (
	"errors"
	"testing"
)

const testGuild = "guild1"

func TestCreateGroupAppendsPriorities(t *testing.T) {
	rig := newTestRig()
	first, err := rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	if err != nil {
		t.Fatalf("Failed to create first group: %v", err)
	}
	second, err := rig.registry.CreateGroup(testGuild, "Colours", nil, "", false, "")
	if err != nil {
		t.Fatalf("Failed to create second group: %v", err)
	}
	if first.Priority != 0 || second.Priority != 1 {
		t.Errorf("Expected appended priorities 0 and 1, got %v and %v", first.Priority, second.Priority)
	}
}

func TestCreateGroupDuplicateNameRejected(t *testing.T) {
	rig := newTestRig()
	if _, err := rig.registry.CreateGroup(testGuild, "Games", nil, "", false, ""); err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}
	//Normalisation makes these the same name.
	_, err := rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	var dup DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateNameError, got %v", err)
	}
	if !IsFailure(err) {
		t.Errorf("Expected duplicate name to be an operator-visible failure")
	}
}

func TestCreateGroupCollidingPriorityShiftsOthers(t *testing.T) {
	rig := newTestRig()
	a, _ := rig.registry.CreateGroup(testGuild, "A", nil, "", false, "")
	b, _ := rig.registry.CreateGroup(testGuild, "B", nil, "", false, "")
	zero := 0
	c, err := rig.registry.CreateGroup(testGuild, "C", &zero, "", false, "")
	if err != nil {
		t.Fatalf("Failed to create group at taken priority: %v", err)
	}
	if c.Priority != 0 {
		t.Errorf("Expected new group at priority 0, got %v", c.Priority)
	}

	groups, err := rig.registry.ListGroups(testGuild)
	if err != nil {
		t.Fatalf("Failed to list groups: %v", err)
	}
	seen := map[int]string{}
	for _, group := range groups {
		if clash, taken := seen[group.Priority]; taken {
			t.Fatalf("Priority %v held by both %v and %v", group.Priority, clash, group.Name)
		}
		seen[group.Priority] = group.Name
	}
	shiftedA, _ := rig.store.GetGroup(a.ID)
	shiftedB, _ := rig.store.GetGroup(b.ID)
	if shiftedA.Priority != 1 || shiftedB.Priority != 2 {
		t.Errorf("Expected existing groups shifted to 1 and 2, got %v and %v", shiftedA.Priority, shiftedB.Priority)
	}
}

func TestTrackRoleCreatesDefaultGroupOnFirstUse(t *testing.T) {
	rig := newTestRig()
	role := rig.addLiveRole("r1", "Gamer", 5)
	managed, err := rig.registry.TrackRole(testGuild, role, "", "", "", true)
	if err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	group, err := rig.store.GetGroup(managed.GroupID)
	if err != nil || group == nil {
		t.Fatalf("Tracked role's group missing: %v", err)
	}
	if group.DisplayName() != rig.cfg.DefaultGroupName {
		t.Errorf("Expected role in default group %v, got %v", rig.cfg.DefaultGroupName, group.DisplayName())
	}

	//A second default-group track must reuse the group, not duplicate it.
	other := rig.addLiveRole("r2", "Artist", 5)
	if _, err := rig.registry.TrackRole(testGuild, other, "", "", "", true); err != nil {
		t.Fatalf("Failed to track second role: %v", err)
	}
	groups, _ := rig.registry.ListGroups(testGuild)
	if len(groups) != 1 {
		t.Errorf("Expected exactly one group, got %v", len(groups))
	}
}

func TestTrackRoleEligibility(t *testing.T) {
	rig := newTestRig()
	rig.authority.botTop = 10

	cases := []struct {
		name string
		role ExternalRole
	}{
		{"integration role", ExternalRole{ID: "r1", Name: "BotRole", Position: 1, Managed: true}},
		{"everyone role", ExternalRole{ID: testGuild, Name: "@everyone", Position: 0, Everyone: true}},
		{"outranks bot", ExternalRole{ID: "r2", Name: "Admin", Position: 50}},
	}
	for _, tc := range cases {
		eligible, reason, err := rig.registry.EligibleForTracking(testGuild, tc.role)
		if err != nil {
			t.Fatalf("%v: eligibility check failed: %v", tc.name, err)
		}
		if eligible || reason == "" {
			t.Errorf("%v: expected ineligible with a reason, got eligible=%v reason=%q", tc.name, eligible, reason)
		}
		if _, err := rig.registry.TrackRole(testGuild, tc.role, "", "", "", false); !IsFailure(err) {
			t.Errorf("%v: expected tracking to fail with an operator-visible failure, got %v", tc.name, err)
		}
	}

	//Already-tracked roles are ineligible too.
	role := rig.addLiveRole("r3", "Gamer", 1)
	if _, err := rig.registry.TrackRole(testGuild, role, "", "", "", false); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	eligible, reason, err := rig.registry.EligibleForTracking(testGuild, role)
	if err != nil {
		t.Fatalf("Eligibility check failed: %v", err)
	}
	if eligible || reason == "" {
		t.Errorf("Expected already-tracked role to be ineligible, got eligible=%v reason=%q", eligible, reason)
	}
}

func TestTrackRoleRejectsInvalidEmoji(t *testing.T) {
	rig := newTestRig()
	role := rig.addLiveRole("r1", "Gamer", 1)
	_, err := rig.registry.TrackRole(testGuild, role, "", "", "definitely not an emoji", true)
	var invalid InvalidEmojiError
	if !errors.As(err, &invalid) {
		t.Fatalf("Expected InvalidEmojiError, got %v", err)
	}

	//Custom emoji mentions are fine.
	if _, err := rig.registry.TrackRole(testGuild, role, "", "", "<:pog:123456789>", true); err != nil {
		t.Errorf("Expected custom emoji to be accepted, got %v", err)
	}
}

func TestTrackRoleGroupCeiling(t *testing.T) {
	store := newFakeStore()
	authority := newFakeAuthority()
	cfg := Config{
		DefaultGroupName: defaultGroupName,
		MaxRolesPerGroup: 1,
		MaxSelectOptions: selectOptionCeiling,
		FuzzyCutoff:      defaultFuzzyCutoff,
		CacheTTL:         defaultCacheTTL,
		CacheGuilds:      defaultCacheGuilds,
	}
	projector := NewProjector(store, authority, cfg)
	registry := NewRegistry(store, authority, projector, cfg)
	authority.liveRoles["r1"] = ExternalRole{ID: "r1", Name: "One", Position: 1}
	authority.liveRoles["r2"] = ExternalRole{ID: "r2", Name: "Two", Position: 1}
	authority.liveRoles["r3"] = ExternalRole{ID: "r3", Name: "Three", Position: 1}
	authority.liveRoles["r4"] = ExternalRole{ID: "r4", Name: "Four", Position: 1}

	if _, err := registry.CreateGroup(testGuild, "Games", nil, "", false, ""); err != nil {
		t.Fatalf("Failed to create group: %v", err)
	}
	if _, err := registry.TrackRole(testGuild, authority.liveRoles["r1"], "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track first role: %v", err)
	}
	_, err := registry.TrackRole(testGuild, authority.liveRoles["r2"], "Games", "", "", true)
	var full GroupFullError
	if !errors.As(err, &full) {
		t.Fatalf("Expected GroupFullError at the ceiling, got %v", err)
	}

	//The default group is exempt from the ceiling.
	if _, err := registry.TrackRole(testGuild, authority.liveRoles["r3"], "", "", "", true); err != nil {
		t.Fatalf("Failed to track into default group: %v", err)
	}
	if _, err := registry.TrackRole(testGuild, authority.liveRoles["r4"], "", "", "", true); err != nil {
		t.Errorf("Expected default group to ignore the ceiling, got %v", err)
	}
}

func TestUntrackRoleUnknownRejected(t *testing.T) {
	rig := newTestRig()
	err := rig.registry.UntrackRole(testGuild, "nope")
	var notManaged NotManagedError
	if !errors.As(err, &notManaged) {
		t.Fatalf("Expected NotManagedError, got %v", err)
	}
}

func TestEditGroupNoOpSkipsWrite(t *testing.T) {
	rig := newTestRig()
	group, _ := rig.registry.CreateGroup(testGuild, "Games", nil, "red", false, "fun")
	same := "Games"
	updated, diff, err := rig.registry.EditGroup(testGuild, group.ID, GroupEdit{Name: &same})
	if err != nil {
		t.Fatalf("No-op edit failed: %v", err)
	}
	if len(diff) != 0 {
		t.Errorf("Expected empty diff for no-op edit, got %v", diff)
	}
	if updated.Name != group.Name {
		t.Errorf("Expected group unchanged, got name %v", updated.Name)
	}
}

func TestEditGroupRenameClashRejected(t *testing.T) {
	rig := newTestRig()
	_, _ = rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	group, _ := rig.registry.CreateGroup(testGuild, "Colours", nil, "", false, "")
	clash := "Games"
	_, _, err := rig.registry.EditGroup(testGuild, group.ID, GroupEdit{Name: &clash})
	var dup DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("Expected DuplicateNameError on rename clash, got %v", err)
	}
}

func TestDeleteGroupTransfersRoles(t *testing.T) {
	rig := newTestRig()
	doomed, _ := rig.registry.CreateGroup(testGuild, "Doomed", nil, "", false, "")
	target, _ := rig.registry.CreateGroup(testGuild, "Target", nil, "", false, "")
	role := rig.addLiveRole("r1", "Gamer", 1)
	managed, err := rig.registry.TrackRole(testGuild, role, "Doomed", "", "", true)
	if err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	if _, err := rig.registry.RegisterWidget(testGuild, "chan1", "msg1", doomed.ID); err != nil {
		t.Fatalf("Failed to register widget: %v", err)
	}

	if err := rig.registry.DeleteGroup(testGuild, doomed.ID, target.ID); err != nil {
		t.Fatalf("Failed to delete group: %v", err)
	}
	moved, _ := rig.store.GetRoleByRoleID(managed.RoleID)
	if moved == nil || moved.GroupID != target.ID {
		t.Errorf("Expected tracked role re-parented to transfer group, got %v", moved)
	}
	widget, _ := rig.store.GetWidgetByMessage("msg1")
	if widget == nil || !widget.Dead {
		t.Errorf("Expected deleted group's widget marked dead, got %v", widget)
	}
	if gone, _ := rig.store.GetGroup(doomed.ID); gone != nil {
		t.Errorf("Expected group deleted, still present: %v", gone)
	}
}

func TestDeleteGroupSelfTransferRejected(t *testing.T) {
	rig := newTestRig()
	group, _ := rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	err := rig.registry.DeleteGroup(testGuild, group.ID, group.ID)
	var same SameGroupError
	if !errors.As(err, &same) {
		t.Fatalf("Expected SameGroupError, got %v", err)
	}
}

func TestDeleteGroupWithoutTransferDropsRoles(t *testing.T) {
	rig := newTestRig()
	doomed, _ := rig.registry.CreateGroup(testGuild, "Doomed", nil, "", false, "")
	role := rig.addLiveRole("r1", "Gamer", 1)
	if _, err := rig.registry.TrackRole(testGuild, role, "Doomed", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}
	if err := rig.registry.DeleteGroup(testGuild, doomed.ID, ""); err != nil {
		t.Fatalf("Failed to delete group: %v", err)
	}
	if record, _ := rig.store.GetRoleByRoleID("r1"); record != nil {
		t.Errorf("Expected tracked role dropped with its group, got %v", record)
	}
}

func TestEditRoleMoveReportsGroupNames(t *testing.T) {
	rig := newTestRig()
	_, _ = rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	_, _ = rig.registry.CreateGroup(testGuild, "Colours", nil, "", false, "")
	role := rig.addLiveRole("r1", "Gamer", 1)
	if _, err := rig.registry.TrackRole(testGuild, role, "Games", "", "", true); err != nil {
		t.Fatalf("Failed to track role: %v", err)
	}

	targetName := "Colours"
	_, diff, err := rig.registry.EditRole(testGuild, "r1", RoleEdit{Group: &targetName})
	if err != nil {
		t.Fatalf("Failed to move role: %v", err)
	}
	found := false
	for _, change := range diff {
		if change.Field == "group" {
			found = true
			if change.Old != "Games" || change.New != "Colours" {
				t.Errorf("Expected group diff by display name, got %v -> %v", change.Old, change.New)
			}
		}
	}
	if !found {
		t.Errorf("Expected a group field in the diff, got %v", diff)
	}
}

func TestFindGroupFuzzy(t *testing.T) {
	rig := newTestRig()
	_, _ = rig.registry.CreateGroup(testGuild, "Pronoun roles", nil, "", false, "")
	_, _ = rig.registry.CreateGroup(testGuild, "Colour roles", nil, "", false, "")

	exact, err := rig.registry.FindGroup(testGuild, "Pronoun roles", false)
	if err != nil {
		t.Fatalf("Exact lookup failed: %v", err)
	}
	if exact.DisplayName() != "Pronoun roles" {
		t.Errorf("Expected exact match, got %v", exact.DisplayName())
	}

	fuzzy, err := rig.registry.FindGroup(testGuild, "pronoun", true)
	if err != nil {
		t.Fatalf("Fuzzy lookup failed: %v", err)
	}
	if fuzzy.DisplayName() != "Pronoun roles" {
		t.Errorf("Expected fuzzy match on Pronoun roles, got %v", fuzzy.DisplayName())
	}

	if _, err := rig.registry.FindGroup(testGuild, "zzzzqqqq", true); err == nil {
		t.Errorf("Expected no match for garbage input")
	} else {
		var notFound GroupNotFoundError
		if !errors.As(err, &notFound) {
			t.Errorf("Expected GroupNotFoundError, got %v", err)
		}
	}
}

func TestAutocompleteOffersSentinelsFirst(t *testing.T) {
	rig := newTestRig()
	_, _ = rig.registry.CreateGroup(testGuild, "Games", nil, "", false, "")
	_, _ = rig.registry.CreateGroup(testGuild, "Colours", nil, "", false, "")

	options, err := rig.registry.Autocomplete(testGuild, "", "Delete the roles")
	if err != nil {
		t.Fatalf("Autocomplete failed: %v", err)
	}
	if len(options) != 3 || options[0] != "Delete the roles" {
		t.Errorf("Expected sentinel option first, got %v", options)
	}
}

func TestTrackAllSkipsIneligibleRoles(t *testing.T) {
	rig := newTestRig()
	rig.addLiveRole("r1", "Gamer", 1)
	rig.addLiveRole("r2", "Artist", 2)
	rig.authority.liveRoles["r3"] = ExternalRole{ID: "r3", Name: "SomeBot", Position: 3, Managed: true}
	rig.authority.liveRoles[testGuild] = ExternalRole{ID: testGuild, Name: "@everyone", Position: 0, Everyone: true}

	tracked, skipped, err := rig.registry.TrackAll(testGuild, "")
	if err != nil {
		t.Fatalf("Track-all failed: %v", err)
	}
	if tracked != 2 || skipped != 2 {
		t.Errorf("Expected 2 tracked and 2 skipped, got %v and %v", tracked, skipped)
	}

	//A second sweep finds everything already tracked.
	tracked, skipped, err = rig.registry.TrackAll(testGuild, "")
	if err != nil {
		t.Fatalf("Second track-all failed: %v", err)
	}
	if tracked != 0 || skipped != 4 {
		t.Errorf("Expected idempotent second sweep, got %v tracked and %v skipped", tracked, skipped)
	}
}
