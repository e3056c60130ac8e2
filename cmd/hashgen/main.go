// Command hashgen prints a bcrypt hash for seeding users out of band.
//
//	hashgen -p 'Admin@123' -u admin -e admin@example.com -r admin
//
// With -u set it also prints an INSERT statement for the users table.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/sbilibin2017/gw-catalog/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type options struct {
	password string
	username string
	email    string
	role     string
	cost     int
}

func main() {
	opts := parseFlags(os.Args[1:])
	if err := run(os.Stdout, opts); err != nil {
		log.Fatalf("hashgen: %v", err)
	}
}

func parseFlags(args []string) options {
	var opts options
	fs := flag.NewFlagSet("hashgen", flag.ExitOnError)
	fs.StringVar(&opts.password, "p", "Admin@123", "Password to hash")
	fs.StringVar(&opts.username, "u", "", "Username for the seed INSERT (omit to print the hash only)")
	fs.StringVar(&opts.email, "e", "", "Email for the seed INSERT")
	fs.StringVar(&opts.role, "r", string(models.RoleAdmin), "Role for the seed INSERT (admin or customer)")
	fs.IntVar(&opts.cost, "cost", bcrypt.DefaultCost, "bcrypt cost")
	_ = fs.Parse(args)
	return opts
}

func run(w io.Writer, opts options) error {
	if opts.password == "" {
		return fmt.Errorf("password must not be empty")
	}
	role := models.Role(opts.role)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", opts.role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.password), opts.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	fmt.Fprintf(w, "Password: %s\n", opts.password)
	fmt.Fprintf(w, "Generated Hash: %s\n", hash)

	if opts.username == "" {
		return nil
	}
	fmt.Fprintf(w, "\nINSERT INTO users (username, password_hash, email, role)\nVALUES ('%s', '%s', '%s', '%s');\n",
		quote(opts.username), hash, quote(opts.email), role)
	return nil
}

// quote escapes single quotes for a SQL string literal.
func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
