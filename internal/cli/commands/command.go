package commands

import (
	"BiomassLedger/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// ErrUsage команда вызвана с неверными аргументами.
var ErrUsage = errors.New("usage")

// Command подкоманда lscli.
type Command interface {
	// Name имя, как его набирает оператор ("approve").
	Name() string
	Description() string
	// Usage строка вызова ("approve <email>").
	Usage() string
	// Run выполняет команду; args без имени команды.
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// Group раздел справки. Команда без раздела попадает в groupOther.
type Group string

const (
	GroupExchange   Group = "Data files"
	GroupIdentities Group = "Supplier accounts"
	groupOther      Group = "Other"
)

// grouped команда, знающая свой раздел справки.
type grouped interface {
	Group() Group
}

var groupOrder = []Group{GroupExchange, GroupIdentities, groupOther}

var registry = map[string]Command{}

// Out вывод результатов, Err сообщения об ошибках. В тестах подменяются.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// RegisterCmd регистрирует команду; вызывается из init() файла команды.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

func Get(name string) (Command, bool) {
	c, ok := registry[strings.ToLower(name)]
	return c, ok
}

// List команды по имени.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

func groupOf(c Command) Group {
	if g, ok := c.(grouped); ok {
		return g.Group()
	}
	return groupOther
}

// FormatGlobalUsage справка по всем командам, по разделам.
func FormatGlobalUsage() string {
	var b strings.Builder
	b.WriteString("Biomass Ledger maintenance CLI\n\n")
	b.WriteString("Usage:\n  lscli [-d <dsn>] [-admin-email <email>] <command> [args]\n")

	byGroup := make(map[Group][]Command)
	for _, c := range List() {
		g := groupOf(c)
		byGroup[g] = append(byGroup[g], c)
	}
	for _, g := range groupOrder {
		if len(byGroup[g]) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", g)
		for _, c := range byGroup[g] {
			fmt.Fprintf(&b, "  %-24s %s\n", c.Usage(), c.Description())
		}
	}
	b.WriteString("\nThe store is taken from -d or DATABASE_URI; the admin partition from ADMIN_EMAIL.\n")
	return b.String()
}

func formatUsage(c Command) string {
	return fmt.Sprintf("Usage: lscli %s\n  %s\n", c.Usage(), c.Description())
}
