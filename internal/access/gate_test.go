package access

import (
	"testing"

	"github.com/zmdiary/zmdiary-bot/internal/models"
)

func user(role models.Role, registered bool) *models.User {
	u := &models.User{ID: 1, DisplayName: "test", Role: role}
	if registered {
		school, class := "Школа №1", "7 Б"
		u.School, u.Class = &school, &class
	}
	return u
}

func TestChainOrder(t *testing.T) {
	// забаненный в групповом чате должен увидеть отказ первой проверки
	d := Chain(false, user(models.Ban, true), PrivateChatOnly, NotBanned)
	if d == nil || d.Gate != "private_chat" {
		t.Fatalf("первая отказавшая проверка должна победить: %#v", d)
	}

	d = Chain(true, user(models.Ban, true), PrivateChatOnly, NotBanned)
	if d == nil || d.Gate != "not_banned" {
		t.Fatalf("ожидали отказ not_banned, получили %#v", d)
	}
}

func TestChainPasses(t *testing.T) {
	d := Chain(true, user(models.Editor, true),
		PrivateChatOnly, NotBanned, HasSchoolAndClass, HasElevatedRole)
	if d != nil {
		t.Fatalf("редактор обязан пройти всю цепочку: %#v", d)
	}
}

func TestHasSchoolAndClass(t *testing.T) {
	if d := HasSchoolAndClass.Check(true, user(models.Viewer, false)); d == nil {
		t.Fatal("незарегистрированный должен получить отказ")
	}
	if d := HasSchoolAndClass.Check(true, nil); d == nil {
		t.Fatal("отсутствующий профиль должен получить отказ")
	}
}

func TestElevatedRoleOffersEditorRequest(t *testing.T) {
	d := HasElevatedRole.Check(true, user(models.Viewer, true))
	if d == nil || !d.OfferEditorRequest {
		t.Fatalf("viewer должен получить отказ с предложением заявки: %#v", d)
	}
	for _, role := range []models.Role{models.Editor, models.VIP, models.Admin} {
		if d := HasElevatedRole.Check(true, user(role, true)); d != nil {
			t.Fatalf("роль %s должна пройти: %#v", role, d)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	if d := IsAdmin.Check(true, user(models.Editor, true)); d == nil {
		t.Fatal("редактор не админ")
	}
	if d := IsAdmin.Check(true, user(models.Admin, true)); d != nil {
		t.Fatalf("админ должен пройти: %#v", d)
	}
}
