package dates

import (
	"testing"
	"time"
)

func TestFormatParseRoundTrip(t *testing.T) {
	d := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	s := Format(d)
	if s != "26 09 01" {
		t.Fatalf("канон должен быть '26 09 01', получили %q", s)
	}
	back, err := Parse(s)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(d) {
		t.Fatalf("дата не совпала после разбора: %v != %v", back, d)
	}
}

func TestCanonicalSortsChronologically(t *testing.T) {
	// строковый порядок канона обязан совпадать с хронологическим —
	// на этом держится фильтр since в подсчёте активности
	earlier := Format(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	later := Format(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if !(earlier < later) {
		t.Fatalf("%q должен быть строково меньше %q", earlier, later)
	}
}

func TestParseManual(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	short, err := ParseManual("09 01", now)
	if err != nil {
		t.Fatal(err)
	}
	if short.Year() != 2026 || short.Month() != time.September || short.Day() != 1 {
		t.Fatalf("короткая форма должна взять год из now: %v", short)
	}

	full, err := ParseManual(" 27 01 20 ", now)
	if err != nil {
		t.Fatal(err)
	}
	if full.Year() != 2027 {
		t.Fatalf("полная форма несёт свой год: %v", full)
	}

	if _, err := ParseManual("первое сентября", now); err == nil {
		t.Fatal("мусорный ввод должен дать ошибку")
	}
	if _, err := ParseManual("09 99", now); err == nil {
		t.Fatal("несуществующий день должен дать ошибку")
	}
}

func TestWeekdayName(t *testing.T) {
	mon := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC) // понедельник
	if got := WeekdayName(mon); got != "Понедельник" {
		t.Fatalf("ожидали Понедельник, получили %q", got)
	}
	sun := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	if got := WeekdayName(sun); got != "Воскресенье" {
		t.Fatalf("ожидали Воскресенье, получили %q", got)
	}
}

func TestDisplay(t *testing.T) {
	d := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	if got := Display(d); got != "01.09.2026" {
		t.Fatalf("ожидали 01.09.2026, получили %q", got)
	}
}
