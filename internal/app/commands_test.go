package app

import "testing"

func TestBotCommandsAreRoutable(t *testing.T) {
	// команды, которые диспетчер реально умеет обрабатывать
	routable := map[string]bool{
		"start": true, "addhw": true, "viewhw": true,
		"editschedule": true, "viewschedule": true,
		"menu": true, "donate": true, "hide": true, "admin": true,
	}

	cmds := BotCommands()
	if len(cmds) == 0 {
		t.Fatal("меню команд пустое")
	}
	if cmds[0].Command != "start" {
		t.Fatalf("первым в меню идёт /start: %s", cmds[0].Command)
	}
	seen := map[string]bool{}
	for _, c := range cmds {
		if !routable[c.Command] {
			t.Errorf("команда /%s не обрабатывается диспетчером", c.Command)
		}
		if c.Description == "" {
			t.Errorf("у /%s пустое описание", c.Command)
		}
		if seen[c.Command] {
			t.Errorf("команда /%s в меню дважды", c.Command)
		}
		seen[c.Command] = true
	}
	// служебные /hide и /admin в меню не публикуются
	if seen["admin"] || seen["hide"] {
		t.Fatal("служебные команды не публикуются в меню")
	}
}
