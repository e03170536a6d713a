package roles

import (
	"testing"

	"github.com/mirabot/mira/guildmodels"
)

func TestDiffGroupsReportsOnlyChangedFields(t *testing.T) {
	before := guildmodels.RoleGroup{ID: "g1", Name: "Games", Priority: 1, Color: "red"}
	after := before
	after.Priority = 3
	after.ExclusiveRoles = true

	diff := diffGroups(&before, &after)
	if len(diff) != 2 {
		t.Fatalf("Expected 2 changes, got %v", diff)
	}
	changed := map[string]FieldDiff{}
	for _, change := range diff {
		changed[change.Field] = change
	}
	if changed["priority"].Old != "1" || changed["priority"].New != "3" {
		t.Errorf("Unexpected priority diff: %+v", changed["priority"])
	}
	if changed["exclusive_roles"].Old != "false" || changed["exclusive_roles"].New != "true" {
		t.Errorf("Unexpected exclusive_roles diff: %+v", changed["exclusive_roles"])
	}
}

func TestDiffGroupsUsesDisplayNames(t *testing.T) {
	before := guildmodels.RoleGroup{ID: "g1", Name: "Colour_roles"}
	after := before
	after.Name = "Game_roles"
	diff := diffGroups(&before, &after)
	if len(diff) != 1 || diff[0].Old != "Colour roles" || diff[0].New != "Game roles" {
		t.Errorf("Expected display-form names in the diff, got %v", diff)
	}
}

func TestDiffRolesIdenticalIsEmpty(t *testing.T) {
	role := guildmodels.ManagedRole{ID: "m1", Name: "Gamer", GroupID: "g1", Assignable: true}
	same := role
	if diff := diffRoles(&role, &same); len(diff) != 0 {
		t.Errorf("Expected no diff for identical roles, got %v", diff)
	}
}

func TestFormFieldTablesNameEveryEditableField(t *testing.T) {
	groupFields := map[string]bool{}
	for _, field := range GroupFormFields() {
		groupFields[field.Name] = true
	}
	for _, want := range []string{"name", "priority", "color", "exclusive_roles", "description"} {
		if !groupFields[want] {
			t.Errorf("Group form is missing the %v field", want)
		}
	}

	roleFields := map[string]bool{}
	for _, field := range RoleFormFields() {
		roleFields[field.Name] = true
	}
	for _, want := range []string{"name", "group", "assignable", "description", "emoji"} {
		if !roleFields[want] {
			t.Errorf("Role form is missing the %v field", want)
		}
	}
}
