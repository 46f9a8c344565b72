// pkg/database/database.go

// Package database dumps and restores a site's MySQL database by invoking
// mysqldump and mysql at the site's endpoint, local or remote.
package database

import (
	"context"
	"io"
	"os"
	"strings"

	cerr "github.com/cockroachdb/errors"
	"github.com/morselabs/wpsnap/pkg/command"
	"github.com/morselabs/wpsnap/pkg/location"
	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/morselabs/wpsnap/pkg/wpconfig"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// DB holds connection parameters plus the endpoint whose MySQL client tools
// are used. The DB host in wp-config is resolvable from that endpoint, not
// necessarily from here, so the client always runs there.
type DB struct {
	Host     string
	User     string
	Password string
	Name     string

	target command.Target
	exec   command.Executor
}

// FromConfig builds a DB from recovered wp-config credentials. hostOverride
// replaces the configured DB host when the wp-config value is bound to a
// loopback or container-internal address.
func FromConfig(cfg wpconfig.Config, site location.Location, exec command.Executor, hostOverride string) (*DB, error) {
	host := cfg["db_host"]
	if hostOverride != "" {
		host = hostOverride
	}
	if host == "" {
		host = "localhost"
	}
	if cfg["db_name"] == "" {
		return nil, cerr.New("missing db_name in site configuration")
	}
	return &DB{
		Host:     host,
		User:     cfg["db_user"],
		Password: cfg["db_password"],
		Name:     cfg["db_name"],
		target:   site,
		exec:     exec,
	}, nil
}

// SetPassword overrides the configured password (interactive prompt path).
func (d *DB) SetPassword(password string) {
	d.Password = password
}

// DumpToFile writes a full dump of the database into filePath on the
// orchestrating host. --hex-blob keeps binary columns restorable.
func (d *DB) DumpToFile(ctx context.Context, filePath string) error {
	logger := otelzap.Ctx(ctx)
	logger.Info("Dumping database", zap.String("db", d.Name), zap.String("file", filePath))

	f, err := os.Create(filePath)
	if err != nil {
		return snap_err.NewIoError("creating dump file", filePath, err)
	}
	defer f.Close()

	argv := []string{"mysqldump", "--hex-blob", "-u", d.User, "-p" + d.Password, "-h", d.Host, d.Name}
	if _, err := d.exec.RunToWriter(ctx, d.target, argv, f); err != nil {
		return cerr.Wrapf(err, "dumping database %s", d.Name)
	}
	return f.Close()
}

// RestoreDump feeds a SQL dump into the database.
func (d *DB) RestoreDump(ctx context.Context, dump io.Reader) error {
	logger := otelzap.Ctx(ctx)
	logger.Info("Restoring database", zap.String("db", d.Name))

	if _, err := d.exec.RunWithInput(ctx, d.target, d.clientArgs(), dump); err != nil {
		return cerr.Wrapf(err, "restoring database %s", d.Name)
	}
	return nil
}

// RestoreDumpFile restores from a dump file on the orchestrating host.
func (d *DB) RestoreDumpFile(ctx context.Context, filePath string) error {
	f, err := os.Open(filePath)
	if err != nil {
		return snap_err.NewIoError("reading dump file", filePath, err)
	}
	defer f.Close()
	return d.RestoreDump(ctx, f)
}

// RunQuery executes a single SQL statement.
func (d *DB) RunQuery(ctx context.Context, query string) error {
	if _, err := d.exec.RunWithInput(ctx, d.target, d.clientArgs(), strings.NewReader(query)); err != nil {
		return cerr.Wrapf(err, "running query against %s", d.Name)
	}
	return nil
}

func (d *DB) clientArgs() []string {
	return []string{"mysql", "-u", d.User, "-p" + d.Password, "-h", d.Host, d.Name}
}
