package homework

import (
	"context"
	"testing"

	"github.com/zmdiary/zmdiary-bot/internal/models"
	"github.com/zmdiary/zmdiary-bot/internal/testutil/memstore"
)

func ptr(s string) *string { return &s }

func author(id int64, group *string) *models.User {
	school, class := "Школа №1", "7 Б"
	return &models.User{ID: id, DisplayName: "editor", Role: models.Editor,
		School: &school, Class: &class, Group: group}
}

func TestAddStampsAuthorGroup(t *testing.T) {
	svc := New(memstore.New())
	ctx := context.Background()

	e, err := svc.Add(ctx, author(1, ptr("2")), "26 09 01", "Английский", "стр. 10")
	if err != nil {
		t.Fatal(err)
	}
	if e.Group == nil || *e.Group != "2" {
		t.Fatalf("запись должна нести группу автора: %#v", e.Group)
	}
	if e.Class != "7 Б" || e.School != "Школа №1" {
		t.Fatalf("класс и школа берутся из профиля автора: %#v", e)
	}

	e, err = svc.Add(ctx, author(1, nil), "26 09 01", "Алгебра", "№ 5")
	if err != nil {
		t.Fatal(err)
	}
	if e.Group != nil {
		t.Fatalf("автор без группы — запись без группы: %#v", e.Group)
	}
}

func TestEntriesForGroupVisibility(t *testing.T) {
	svc := New(memstore.New())
	ctx := context.Background()

	if _, err := svc.Add(ctx, author(1, nil), "26 09 01", "Алгебра", "всем"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Add(ctx, author(2, ptr("1")), "26 09 01", "Английский", "группе 1"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Add(ctx, author(3, ptr("2")), "26 09 01", "Английский", "группе 2"); err != nil {
		t.Fatal(err)
	}

	got, err := svc.EntriesFor(ctx, "26 09 01", "7 Б", "Школа №1", ptr("1"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("группа 1 видит общее и своё, получили %d записей", len(got))
	}
	// порядок выдачи — порядок вставки
	if got[0].Task != "всем" || got[1].Task != "группе 1" {
		t.Fatalf("нарушен порядок вставки: %#v", got)
	}

	all, err := svc.EntriesFor(ctx, "26 09 01", "7 Б", "Школа №1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("без группы видно всё: %d", len(all))
	}
}
