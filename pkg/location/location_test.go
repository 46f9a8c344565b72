package location

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/morselabs/wpsnap/pkg/snap_err"
	"github.com/morselabs/wpsnap/pkg/sshman"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{Registry: sshman.NewRegistry()}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		address  string
		wantErr  bool
		remote   bool
		wantPath string
		wantStr  string
	}{
		{
			name:     "local absolute path",
			address:  "/var/www/site",
			wantPath: "/var/www/site",
			wantStr:  "/var/www/site",
		},
		{
			name:     "local relative path",
			address:  "backups/site",
			wantPath: "backups/site",
			wantStr:  "backups/site",
		},
		{
			name:     "remote address",
			address:  "deploy@web1.example.com:/var/www/site",
			remote:   true,
			wantPath: "/var/www/site",
			wantStr:  "deploy@web1.example.com:/var/www/site",
		},
		{
			name:     "remote short host",
			address:  "root@web1:site",
			remote:   true,
			wantPath: "site",
			wantStr:  "root@web1:site",
		},
		{
			name:    "empty address",
			address: "",
			wantErr: true,
		},
		{
			name:    "remote without path",
			address: "deploy@web1.example.com:",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := Parse(tt.address, testOptions())
			if tt.wantErr {
				require.Error(t, err)
				var malformed *snap_err.MalformedAddressError
				assert.ErrorAs(t, err, &malformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, loc.Path())
			assert.Equal(t, tt.wantStr, loc.String())
			_, isRemote := loc.(*Remote)
			assert.Equal(t, tt.remote, isRemote)
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, address := range []string{
		"/var/www/site",
		"deploy@web1.example.com:/var/www/site",
		"root@host:relative/path",
	} {
		loc, err := Parse(address, testOptions())
		require.NoError(t, err)

		again, err := Parse(loc.String(), testOptions())
		require.NoError(t, err)
		assert.Equal(t, loc.String(), again.String())
		assert.Equal(t, loc.Path(), again.Path())
	}
}

func TestRemoteFields(t *testing.T) {
	loc, err := Parse("u@h:p", testOptions())
	require.NoError(t, err)

	remote, ok := loc.(*Remote)
	require.True(t, ok)
	assert.Equal(t, "u", remote.user)
	assert.Equal(t, "h", remote.host)
	assert.Equal(t, "p", remote.path)
}

func TestChild(t *testing.T) {
	local, err := Parse("/srv/backups", testOptions())
	require.NoError(t, err)
	assert.Equal(t, "/srv/backups/x/y", local.Child("x").Child("y").Path())

	remote, err := Parse("deploy@web1.example.com:/var/www", testOptions())
	require.NoError(t, err)
	child := remote.Child("wordpress")
	assert.Equal(t, "/var/www/wordpress", child.Path())
	assert.Equal(t, "deploy@web1.example.com:/var/www/wordpress", child.String())

	// endpoint and compression survive the join
	remote.SetCompression(CompressionXz)
	assert.Equal(t, CompressionXz, remote.Child("a").Compression())
}

func TestRsyncAddress(t *testing.T) {
	tests := []struct {
		address  string
		contents bool
		want     string
	}{
		{"/var/www/site", true, "/var/www/site/"},
		{"/var/www/site/", true, "/var/www/site/"},
		{"/var/www/site/", false, "/var/www/site"},
		{"u@h:/var/www", true, "u@h:/var/www/"},
		{"u@h:/var/www", false, "u@h:/var/www"},
	}

	for _, tt := range tests {
		loc, err := Parse(tt.address, testOptions())
		require.NoError(t, err)
		assert.Equal(t, tt.want, loc.RsyncAddress(tt.contents))
	}
}

func TestLocalEnsureDirExistsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "c")
	loc := NewLocal(dir, testOptions())

	ctx := context.Background()
	require.NoError(t, loc.EnsureDirExists(ctx))
	require.NoError(t, loc.EnsureDirExists(ctx))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalDeleteDirContent(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub", "deep"), 0o755))

	loc := NewLocal(dir, testOptions())
	ctx := context.Background()
	require.NoError(t, loc.DeleteDirContent(ctx))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// idempotent on an already-empty directory
	require.NoError(t, loc.DeleteDirContent(ctx))

	// and on a missing one
	missing := NewLocal(filepath.Join(dir, "nope"), testOptions())
	require.NoError(t, missing.DeleteDirContent(ctx))
}

func TestLocalReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wp-config.php")
	require.NoError(t, os.WriteFile(path, []byte("<?php"), 0o600))

	loc := NewLocal(path, testOptions())
	content, err := loc.ReadFile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "<?php", content)

	_, err = NewLocal(filepath.Join(dir, "missing"), testOptions()).ReadFile(context.Background())
	var ioErr *snap_err.IoError
	assert.ErrorAs(t, err, &ioErr)
}

func TestCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
		ext     string
		flag    string
	}{
		{in: "", want: CompressionGzip, ext: ".tar.gz", flag: "-z"},
		{in: "gzip", want: CompressionGzip, ext: ".tar.gz", flag: "-z"},
		{in: "bzip2", want: CompressionBzip2, ext: ".tar.bz2", flag: "-j"},
		{in: "lzip", want: CompressionLzip, ext: ".tar.lz", flag: "--lzip"},
		{in: "xz", want: CompressionXz, ext: ".tar.xz", flag: "-J"},
		{in: "zstd", wantErr: true},
	}

	for _, tt := range tests {
		c, err := ParseCompression(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, c)
		assert.Equal(t, tt.ext, c.Extension())
		assert.Equal(t, tt.flag, c.tarFlag())
	}
}
