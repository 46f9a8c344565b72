// pkg/wpconfig/wpconfig.go

// Package wpconfig recovers database credentials from a site's
// wp-config.php, read through a Location so the file may live on a remote
// host.
package wpconfig

import (
	"context"
	"regexp"

	cerr "github.com/cockroachdb/errors"
	"github.com/morselabs/wpsnap/pkg/location"
)

// FileName is the configuration file at the root of a WordPress install.
const FileName = "wp-config.php"

var (
	defineRe      = regexp.MustCompile(`define\(\s*['"]([A-Z_]+)['"]\s*,\s*['"]([^'"]*)['"]\s*\)`)
	tablePrefixRe = regexp.MustCompile(`\$table_prefix\s*=\s*['"]([^'"]*)['"]`)
)

// constantKeys maps wp-config constants to the credential field names used
// in the settings sidecar.
var constantKeys = map[string]string{
	"DB_NAME":     "db_name",
	"DB_USER":     "db_user",
	"DB_PASSWORD": "db_password",
	"DB_HOST":     "db_host",
	"DB_CHARSET":  "db_charset",
}

// Config is the credential mapping recovered from wp-config.php.
type Config map[string]string

// Read fetches and parses wp-config.php under the site root.
func Read(ctx context.Context, site location.Location) (Config, error) {
	raw, err := site.Child(FileName).ReadFile(ctx)
	if err != nil {
		return nil, err
	}
	cfg := Parse(raw)
	if cfg["db_name"] == "" {
		return nil, cerr.Newf("no DB_NAME found in %s at %s", FileName, site)
	}
	return cfg, nil
}

// Parse extracts credential constants and the table prefix from wp-config
// source text.
func Parse(content string) Config {
	cfg := Config{}
	for _, m := range defineRe.FindAllStringSubmatch(content, -1) {
		if key, ok := constantKeys[m[1]]; ok {
			cfg[key] = m[2]
		}
	}
	if m := tablePrefixRe.FindStringSubmatch(content); m != nil {
		cfg["table_prefix"] = m[1]
	}
	return cfg
}
