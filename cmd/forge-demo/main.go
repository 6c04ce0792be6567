// forge/cmd/forge-demo/main.go
// forge-demo is a small CLI wiring the example containers together,
// replacing the teacher's HTTP-serving root main.go (grounded on its
// core.NewGoblinApp wiring) with cobra subcommands, one per example
// scenario (grounded on the teacher's cmd/goblin.go root/subcommand
// shape, which never compiled against the teacher's own go.mod).
package main

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"forge/debughttp"
	"forge/examples/chain"
	"forge/examples/dbresource"
	"forge/examples/sharing"
)

func main() {
	root := &cobra.Command{
		Use:   "forge-demo",
		Short: "Runs forge's dependency-injection example scenarios",
	}

	root.AddCommand(chainCmd(), sharingCmd(), dbCmd(), serveCmd())

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func chainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain",
		Short: "Factory chain: Foo -> Bar -> Baz, fresh per Make",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, calls := chain.New()
			first, err := chain.MakeBaz(c)
			if err != nil {
				return err
			}
			second, err := chain.MakeBaz(c)
			if err != nil {
				return err
			}
			fmt.Printf("foo constructed %d time(s); first.Bar.Foo == second.Bar.Foo: %v\n",
				*calls, first.Bar.Foo == second.Bar.Foo)
			return nil
		},
	}
}

func sharingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sharing",
		Short: "Singleton sharing: two Baz values share one Bar",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, calls := sharing.New()
			first, second, err := sharing.MakeTwoBaz(c)
			if err != nil {
				return err
			}
			fmt.Printf("foo constructed %d time(s); first.Bar == second.Bar: %v\n",
				*calls, first.Bar == second.Bar)
			return nil
		},
	}
}

func dbCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "db",
		Short: "Resource provider: an in-memory sqlite connection, torn down on scope close",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := dbresource.New("file::memory:?cache=shared")
			if err != nil {
				return err
			}
			return dbresource.WithDB(c, func(db *gorm.DB) error {
				rec := &dbresource.Record{Name: "forge-demo"}
				if err := db.Create(rec).Error; err != nil {
					return err
				}
				out, _ := json.Marshal(rec)
				fmt.Println(string(out))
				return nil
			})
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the read-only container introspection HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _ := chain.New()
			srv := debughttp.New(c, true)
			fmt.Printf("listening on %s\n", addr)
			return srv.Engine().Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}
