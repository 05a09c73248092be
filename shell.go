package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const shellHelp = `Commands:
  tab <name>               switch tab (log-hours, create-user, view-hours, user-stats, rules)
  refresh                  reload the current tab
  log                      log hours (prompts for each field)
  register                 register a volunteer (prompts for each field)
  select <id>              choose a volunteer on the current tab
  stats [id]               show a volunteer's hours
  edit <id>                start editing an entry
  set <id> <field> <value> change date, hours or notes of the entry being edited
  save <id>                save an edited entry
  cancel <id>              drop changes to an entry
  delete <id>              delete an entry
  help                     show this help
  quit                     leave`

// Shell runs the tabbed session on the terminal until quit, EOF or ctx is
// cancelled.
func (a *App) Shell(ctx context.Context, fragment string) error {
	if err := a.Start(ctx, fragment); err != nil && !isReported(err) {
		return err
	}
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, `Type "help" for commands.`)

	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprintf(a.out, "\n(%s)\nvhours:%s> ", a.StatusLine(), a.tabs.Current())
		line, err := a.in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			fmt.Fprintln(a.out)
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		quit, err := a.runShellCommand(ctx, fields[0], fields[1:])
		if err != nil && !isReported(err) {
			a.notices.Error("shell", err.Error())
		}
		if quit {
			return nil
		}
	}
}

func (a *App) runShellCommand(ctx context.Context, name string, args []string) (quit bool, err error) {
	switch name {
	case "quit", "exit", "q":
		return true, nil

	case "help", "?":
		fmt.Fprintln(a.out, shellHelp)
		return false, nil

	case "tab":
		if len(args) != 1 {
			return false, errors.New("usage: tab <name>")
		}
		if TabID(args[0]) == a.tabs.Current() {
			fmt.Fprintf(a.out, "Already on %s, use refresh to reload.\n", args[0])
			return false, nil
		}
		_, err := a.tabs.Activate(ctx, TabID(args[0]))
		return false, err

	case "refresh":
		_, err := a.tabs.Show(ctx, a.tabs.Current())
		return false, err

	case "log":
		if a.tabs.Current() != TabLogHours {
			if _, err := a.tabs.Activate(ctx, TabLogHours); err != nil {
				return false, err
			}
		}
		_, err := a.submitLog(ctx, LogInput{
			VolunteerID: a.promptVolunteer(a.volunteers),
			Date:        a.prompt("Date", a.logForm.Date),
			Hours:       a.prompt("Hours", ""),
			Notes:       a.prompt("Notes", ""),
		})
		return false, err

	case "register":
		if _, err := a.tabs.Activate(ctx, TabCreateUser); err != nil {
			return false, err
		}
		return false, a.Register(ctx, RegisterInput{
			Name:  a.prompt("Name", ""),
			Email: a.prompt("Email", ""),
			Phone: a.prompt("Phone (optional)", ""),
		})

	case "select":
		if len(args) != 1 {
			return false, errors.New("usage: select <id>")
		}
		if a.tabs.Current() == TabUserStats {
			return false, a.SelectStats(ctx, args[0])
		}
		if err := a.volunteers.Select(ctx, args[0]); err != nil {
			return false, err
		}
		fmt.Fprintf(a.out, "Volunteer: %s\n", a.volunteers.Label(args[0]))
		return false, nil

	case "stats":
		var id string
		if len(args) > 0 {
			id = args[0]
		}
		return false, a.Stats(ctx, id)

	case "edit", "save", "cancel", "delete":
		if len(args) < 1 {
			return false, fmt.Errorf("usage: %s <id>", name)
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid entry id %q", args[0])
		}
		return false, a.rowCommand(ctx, name, id)

	case "set":
		if len(args) < 2 {
			return false, errors.New("usage: set <id> <date|hours|notes> <value>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return false, fmt.Errorf("invalid entry id %q", args[0])
		}
		return false, a.setDraftField(id, args[1], strings.Join(args[2:], " "))

	default:
		return false, fmt.Errorf("unknown command %q, try help", name)
	}
}

func (a *App) rowCommand(ctx context.Context, name string, id int64) error {
	if a.tabs.Current() != TabViewHours {
		if _, err := a.tabs.Activate(ctx, TabViewHours); err != nil {
			return err
		}
	}

	switch name {
	case "edit":
		row, err := a.table.BeginEdit(id)
		if err != nil {
			return err
		}
		d := row.Draft()
		fmt.Fprintf(a.out, "Editing %d: date=%s hours=%s notes=%q\n", id, d.Date, d.Hours, d.Notes)
		return nil
	case "save":
		return a.SaveEntry(ctx, id)
	case "cancel":
		if err := a.table.Cancel(id); err != nil {
			return err
		}
		a.table.Render(a.out)
		return nil
	default:
		return a.DeleteEntry(ctx, id, false)
	}
}

func (a *App) setDraftField(id int64, field, value string) error {
	row, err := a.table.Row(id)
	if err != nil {
		return err
	}

	draft := row.Draft()
	switch field {
	case "date":
		draft.Date = value
	case "hours":
		draft.Hours = value
	case "notes":
		draft.Notes = value
	default:
		return fmt.Errorf("unknown field %q, use date, hours or notes", field)
	}
	return a.table.SetDraft(id, draft)
}

// promptVolunteer offers the menu when there are volunteers to choose from,
// keeping the current selection otherwise.
func (a *App) promptVolunteer(d *VolunteerDropdown) string {
	if d.Empty() || !a.interactive {
		return d.Selected()
	}
	if id, ok := a.picker(d.Placeholder(), d.Options()); ok {
		return id
	}
	return d.Selected()
}

func isReported(err error) bool {
	var reported *reportedError
	return errors.As(err, &reported)
}
