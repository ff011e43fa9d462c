package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stemma/pkg/family"
	"github.com/matzehuels/stemma/pkg/store"
)

// treeCommand creates the tree command for managing stored trees.
func (c *CLI) treeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Manage stored family trees",
		Long: `Manage the family trees kept in the configured store.

Trees are addressed by id or by name. Use 'tree list' to see what is stored
and 'tree pick' to choose one interactively.`,
	}

	cmd.AddCommand(c.treeListCommand())
	cmd.AddCommand(c.treeCreateCommand())
	cmd.AddCommand(c.treeShowCommand())
	cmd.AddCommand(c.treeRenameCommand())
	cmd.AddCommand(c.treeDeleteCommand())
	cmd.AddCommand(c.treeImportCommand())
	cmd.AddCommand(c.treeExportCommand())
	cmd.AddCommand(c.treePickCommand())
	cmd.AddCommand(c.treeLayoutCommand())
	cmd.AddCommand(c.treeAddCommand())
	cmd.AddCommand(c.treeSpouseCommand())
	cmd.AddCommand(c.treeChildCommand())
	cmd.AddCommand(c.treeEditCommand())
	cmd.AddCommand(c.treeRemoveCommand())
	cmd.AddCommand(c.treeConnectCommand())
	cmd.AddCommand(c.treeUnlinkCommand())
	cmd.AddCommand(c.treeWatchCommand())

	for _, sub := range cmd.Commands() {
		if strings.HasPrefix(sub.Use, sub.Name()+" [tree]") {
			sub.ValidArgsFunction = c.completeTrees
		}
	}

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	s, err := c.store(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

// =============================================================================
// Listing & Lifecycle
// =============================================================================

func (c *CLI) treeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored trees",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				list, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No trees stored")
					printNextStep("Create one", appName+" tree create \"My Family\"")
					return nil
				}
				fmt.Println(treeTable(list, 0, -1))
				return nil
			})
		},
	}
}

func (c *CLI) treeCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create [name]",
		Short: "Create a tree holding a single root member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				t, err := s.Create(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printSuccess("Created %s", t.Name)
				printKeyValue("ID", t.ID)
				printKeyValue("Root", t.Nodes[0].ID)
				return nil
			})
		},
	}
}

func (c *CLI) treeShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [tree]",
		Short: "Show the households of a tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				t, err := store.Resolve(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				printTree(t)
				return nil
			})
		},
	}
}

// printTree prints a tree's metadata and one line per household.
func printTree(t family.Tree) {
	fmt.Println(StyleTitle.Render(t.Name))
	printKeyValue("ID", t.ID)
	printKeyValue("Updated", formatRelativeTime(t.UpdatedAt))
	printStats(len(t.Nodes), t.MemberCount(), len(t.Edges), false)
	printNewline()

	for _, h := range t.Nodes {
		names := make([]string, 0, 1+len(h.Spouses))
		for _, m := range h.Members() {
			names = append(names, memberLabel(m))
		}
		line := strings.Join(names, " ⚭ ")
		if kids := t.Children(h.ID); len(kids) > 0 {
			line += StyleDim.Render(" · " + plural(len(kids), "child"))
		}
		fmt.Println("  " + StyleDim.Render(shortID(h.ID)) + "  " + line)
	}
}

func memberLabel(m family.Member) string {
	name := m.Name
	if name == "" {
		name = "(unnamed)"
	}
	if m.Nickname != "" {
		name += " \"" + m.Nickname + "\""
	}
	return name
}

func (c *CLI) treeRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename [tree] [new-name]",
		Short: "Rename a tree",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, err := family.Rename(t, args[1])
				return out, "Renamed to " + strings.TrimSpace(args[1]), err
			})
		},
	}
}

func (c *CLI) treeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete [tree]",
		Aliases: []string{"rm"},
		Short:   "Delete a tree",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				t, err := store.Resolve(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				if err := s.Delete(cmd.Context(), t.ID); err != nil {
					return err
				}
				printSuccess("Deleted %s", t.Name)
				return nil
			})
		},
	}
}

// =============================================================================
// Import & Export
// =============================================================================

func (c *CLI) treeImportCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Import trees from an editor JSON file",
		Long: `Import trees from a JSON file holding one tree or a list of trees, as
saved by the web editor. Trees keep their ids, so importing the same file
twice replaces the earlier copies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			trees, err := family.ReadTreesFile(args[0])
			if err != nil {
				return err
			}
			if name != "" && len(trees) != 1 {
				return fmt.Errorf("--name needs a file with exactly one tree, %s has %d", args[0], len(trees))
			}
			return c.withStore(cmd.Context(), func(s store.Store) error {
				for _, t := range trees {
					if name != "" {
						t.Name = name
					}
					saved, err := s.Save(cmd.Context(), t)
					if err != nil {
						return fmt.Errorf("import %q: %w", t.Name, err)
					}
					printSuccess("Imported %s", saved.Name)
					printStats(len(saved.Nodes), saved.MemberCount(), len(saved.Edges), false)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "store the tree under this name")
	return cmd
}

func (c *CLI) treeExportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [tree]",
		Short: "Write a stored tree as editor JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				t, err := store.Resolve(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				if output == "" {
					data, err := family.MarshalTree(t)
					if err != nil {
						return err
					}
					_, err = cmd.OutOrStdout().Write(data)
					return err
				}
				if err := family.WriteTreeFile(output, t); err != nil {
					return err
				}
				printSuccess("Exported %s", t.Name)
				printFile(output)
				printNextStep("Render", appName+" render "+output)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func (c *CLI) treePickCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pick",
		Short: "Choose a stored tree interactively and show it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(s store.Store) error {
				list, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No trees stored")
					return nil
				}
				sel, err := pickTree(list)
				if err != nil || sel == nil {
					return err
				}
				t, err := s.Get(cmd.Context(), sel.ID)
				if err != nil {
					return err
				}
				printTree(t)
				return nil
			})
		},
	}
}

func (c *CLI) treeLayoutCommand() *cobra.Command {
	var flags layoutFlags

	cmd := &cobra.Command{
		Use:   "layout [tree]",
		Short: "Lay out a stored tree and save the positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.cliOptions()
			flags.apply(&opts)
			runner, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, hit, err := runner.Layout(cmd.Context(), t, opts)
				if err != nil {
					return t, "", err
				}
				msg := fmt.Sprintf("Laid out %s", plural(len(out.Nodes), "household"))
				if hit {
					msg += " (cached)"
				}
				return out, msg, nil
			})
		},
	}

	flags.register(cmd)
	return cmd
}

// =============================================================================
// Editing
// =============================================================================

// editTree resolves ref, applies fn and saves the result. fn returns the
// success message to print.
func (c *CLI) editTree(ctx context.Context, ref string, fn func(family.Tree) (family.Tree, string, error)) error {
	return c.withStore(ctx, func(s store.Store) error {
		t, err := store.Resolve(ctx, s, ref)
		if err != nil {
			return err
		}
		out, msg, err := fn(t)
		if err != nil {
			return err
		}
		saved, err := s.Save(ctx, out)
		if err != nil {
			return err
		}
		printSuccess("%s", msg)
		printStats(len(saved.Nodes), saved.MemberCount(), len(saved.Edges), false)
		return nil
	})
}

// memberFlags collects a member's fields from flags.
type memberFlags struct {
	name       string
	nickname   string
	gender     string
	mobile     string
	childIndex string
	photo      string
}

func (f *memberFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "full name")
	cmd.Flags().StringVar(&f.nickname, "nickname", "", "nickname")
	cmd.Flags().StringVarP(&f.gender, "gender", "g", "", "male or female")
	cmd.Flags().StringVar(&f.mobile, "mobile", "", "phone number")
	cmd.Flags().StringVar(&f.childIndex, "child-index", "", "position among siblings, as displayed")
	cmd.Flags().StringVar(&f.photo, "photo", "", "photo URL or data URL")
}

func (f *memberFlags) member() (family.Member, error) {
	g, err := family.ParseGender(f.gender)
	if err != nil {
		return family.Member{}, err
	}
	return family.Member{
		Name:       strings.TrimSpace(f.name),
		Nickname:   f.nickname,
		Gender:     g,
		Mobile:     f.mobile,
		ChildIndex: f.childIndex,
		Photo:      f.photo,
	}, nil
}

func (c *CLI) treeAddCommand() *cobra.Command {
	var flags memberFlags

	cmd := &cobra.Command{
		Use:   "add [tree]",
		Short: "Add a disconnected household",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.member()
			if err != nil {
				return err
			}
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, id, err := family.AddRoot(t, m)
				return out, fmt.Sprintf("Added %s as household %s", m.Name, shortID(id)), err
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) treeSpouseCommand() *cobra.Command {
	var flags memberFlags

	cmd := &cobra.Command{
		Use:   "spouse [tree] [household]",
		Short: "Add a spouse to a household",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.member()
			if err != nil {
				return err
			}
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, err := family.AddSpouse(t, args[1], m)
				return out, fmt.Sprintf("Added spouse %s", memberLabel(m)), err
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func (c *CLI) treeChildCommand() *cobra.Command {
	var (
		flags  memberFlags
		anchor string
	)

	cmd := &cobra.Command{
		Use:   "child [tree] [parent-household]",
		Short: "Add a child below a household",
		Long: `Add a child below a household. --anchor selects which union the child
descends from: primary (default) or spouse-N for the household's N-th spouse.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := flags.member()
			if err != nil {
				return err
			}
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, id, err := family.AddChild(t, args[1], family.Anchor(anchor), m)
				return out, fmt.Sprintf("Added child %s as household %s", m.Name, shortID(id)), err
			})
		},
	}

	cmd.Flags().StringVarP(&anchor, "anchor", "a", "", "union the child descends from: primary or spouse-N")
	flags.register(cmd)
	return cmd
}

func (c *CLI) treeEditCommand() *cobra.Command {
	var (
		flags  memberFlags
		member string
	)

	cmd := &cobra.Command{
		Use:   "edit [tree] [household]",
		Short: "Replace a member's details",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := family.ParseMemberRef(member)
			if err != nil {
				return err
			}
			m, err := flags.member()
			if err != nil {
				return err
			}
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, err := family.EditMember(t, args[1], ref, m)
				return out, fmt.Sprintf("Updated %s of %s", ref, shortID(args[1])), err
			})
		},
	}

	cmd.Flags().StringVarP(&member, "member", "m", "", "member to edit: primary (default) or spouse-N")
	flags.register(cmd)
	return cmd
}

func (c *CLI) treeRemoveCommand() *cobra.Command {
	var member string

	cmd := &cobra.Command{
		Use:   "remove [tree] [household]",
		Short: "Remove a household, or one spouse with --member",
		Long: `Remove a household together with its edges. With --member spouse-N only that
spouse is removed; children that descended from the spouse move to the
primary line.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := family.ParseMemberRef(member)
			if err != nil {
				return err
			}
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, err := family.DeleteMember(t, args[1], ref)
				if ref.Primary {
					return out, fmt.Sprintf("Removed household %s", shortID(args[1])), err
				}
				return out, fmt.Sprintf("Removed %s of %s", ref, shortID(args[1])), err
			})
		},
	}

	cmd.Flags().StringVarP(&member, "member", "m", "", "spouse to remove (spouse-N); omit to remove the household")
	return cmd
}

func (c *CLI) treeConnectCommand() *cobra.Command {
	var anchor string

	cmd := &cobra.Command{
		Use:   "connect [tree] [parent-household] [child-household]",
		Short: "Add a parent to child edge between existing households",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out, id, err := family.Connect(t, args[1], args[2], family.Anchor(anchor))
				return out, fmt.Sprintf("Connected as edge %s", shortID(id)), err
			})
		},
	}

	cmd.Flags().StringVarP(&anchor, "anchor", "a", "", "union the child descends from: primary or spouse-N")
	return cmd
}

func (c *CLI) treeUnlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink [tree] [edge]",
		Short: "Remove an edge",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editTree(cmd.Context(), args[0], func(t family.Tree) (family.Tree, string, error) {
				out := family.RemoveEdge(t, args[1])
				if len(out.Edges) == len(t.Edges) {
					return t, "", fmt.Errorf("edge %q not found", args[1])
				}
				return out, "Removed edge " + shortID(args[1]), nil
			})
		},
	}
}

// =============================================================================
// Watch
// =============================================================================

func (c *CLI) treeWatchCommand() *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch [file]",
		Short: "Save a tree file to the store whenever it changes",
		Long: `Watch a tree file that another program edits and save it to the store on
a fixed interval while it keeps changing. The first save assigns an id when
the file has none; later saves replace that tree. Stops on Ctrl+C after one
final save.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("interval") {
				interval = c.Config.Store.AutosaveInterval.Duration
			}
			ctx := cmd.Context()

			return c.withStore(ctx, func(s store.Store) error {
				// Read once up front so errors in the file surface immediately.
				t, err := family.ReadTreeFile(args[0])
				if err != nil {
					return err
				}
				logger := loggerFromContext(ctx).With("file", args[0])
				w := &fileSnapshot{path: args[0], id: t.ID, logger: logger.Warnf}
				if w.id == "" {
					w.id = uuid.NewString()
				}
				a := &store.Autosaver{Store: s, Snapshot: w.snapshot, Interval: interval, Logger: logger}
				a.SaveNow(ctx)
				printInfo("Watching %s every %s (Ctrl+C to stop)", args[0], interval)

				a.Run(ctx)

				n, last := a.Saves()
				printSuccess("Saved %s", plural(n, "time"))
				if !last.IsZero() {
					printDetail("Last save: %s", last.Local().Format(time.Kitchen))
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "time between saves (default from config, 30s)")
	return cmd
}

// fileSnapshot reads a tree file for an [store.Autosaver], reporting a
// snapshot only when the file changed since the last read. Trees without
// an id in the file are saved under id.
type fileSnapshot struct {
	path    string
	logger  func(string, ...any)
	modTime time.Time
	id      string
}

func (f *fileSnapshot) snapshot() (family.Tree, bool) {
	info, err := os.Stat(f.path)
	if err != nil {
		f.logger("watch: %v", err)
		return family.Tree{}, false
	}
	if info.ModTime().Equal(f.modTime) {
		return family.Tree{}, false
	}
	t, err := family.ReadTreeFile(f.path)
	if err != nil {
		// Editors write files in several steps; retry next tick.
		f.logger("watch: %v", err)
		return family.Tree{}, false
	}
	f.modTime = info.ModTime()
	if t.ID == "" {
		t.ID = f.id
	}
	return t, true
}
