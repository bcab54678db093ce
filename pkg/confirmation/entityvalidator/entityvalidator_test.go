package entityvalidator

import (
	"context"
	"testing"

	"github.com/Jistoria/document-service/pkg/graphmodel"
	"github.com/Jistoria/document-service/pkg/graphstore"
)

func TestValidate_UserCreateAction(t *testing.T) {
	store := graphstore.NewMemoryStore()
	out, err := Validate(context.Background(), store, graphmodel.EntityTypeKeyUser, map[string]interface{}{
		"action": "CREATE_USER", "display_name": "Jane Doe",
	})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !out.IsValid || out.Action != ActionCreateUser {
		t.Errorf("Validate() = %+v, want valid CREATE_USER", out)
	}
}

func TestValidate_UserCreateActionMissingDisplayName(t *testing.T) {
	store := graphstore.NewMemoryStore()
	out, _ := Validate(context.Background(), store, graphmodel.EntityTypeKeyUser, map[string]interface{}{
		"action": "CREATE_USER",
	})
	if out.IsValid {
		t.Error("Validate() should reject CREATE_USER with no display_name")
	}
}

func TestValidate_UserLinkExisting(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.UpsertVertex(context.Background(), "dms_users", "u1", map[string]interface{}{"name": "Jane"})

	out, err := Validate(context.Background(), store, graphmodel.EntityTypeKeyUser, map[string]interface{}{"id": "u1"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !out.IsValid || out.Action != ActionLinkExisting {
		t.Errorf("Validate() = %+v, want valid LINK_EXISTING", out)
	}
}

func TestValidate_UserLinkMissing(t *testing.T) {
	store := graphstore.NewMemoryStore()
	out, _ := Validate(context.Background(), store, graphmodel.EntityTypeKeyUser, map[string]interface{}{"id": "ghost"})
	if out.IsValid {
		t.Error("Validate() should reject a user id that does not exist")
	}
}

func TestValidate_StructuralLinkExisting(t *testing.T) {
	store := graphstore.NewMemoryStore()
	store.UpsertVertex(context.Background(), "entities", "career1", map[string]interface{}{"name": "Systems Engineering"})

	out, err := Validate(context.Background(), store, graphmodel.EntityTypeKeyCareer, map[string]interface{}{"id": "career1"})
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !out.IsValid {
		t.Errorf("Validate() = %+v, want valid", out)
	}
}

func TestValidate_StructuralRejectsCreateAction(t *testing.T) {
	store := graphstore.NewMemoryStore()
	out, _ := Validate(context.Background(), store, graphmodel.EntityTypeKeyCareer, map[string]interface{}{
		"action": "CREATE_USER", "display_name": "New Career",
	})
	if out.IsValid {
		t.Error("Validate() should never let a structural entity type take CREATE_USER")
	}
}

func TestValidate_RejectsNonObject(t *testing.T) {
	store := graphstore.NewMemoryStore()
	out, err := Validate(context.Background(), store, graphmodel.EntityTypeKeyCareer, "not-an-object")
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if out.IsValid {
		t.Error("Validate() should reject a non-object value")
	}
}
