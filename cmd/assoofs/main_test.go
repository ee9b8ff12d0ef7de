package main

import (
	"bytes"
	"errors"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/mit-pdos/go-assoofs/common"
	"github.com/mit-pdos/go-assoofs/mkfs"
)

type harness struct {
	t     *testing.T
	image string
}

func mkHarness(t *testing.T) *harness {
	dir := cleanEnv(t)
	return &harness{t: t, image: filepath.Join(dir, "test.img")}
}

func (c *harness) run(stdin string, args ...string) (string, error) {
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = ioutil.Discard
	app.Reader = strings.NewReader(stdin)
	err := app.Run(append([]string{appName, "--image", c.image}, args...))
	return out.String(), err
}

func (c *harness) ok(stdin string, args ...string) string {
	out, err := c.run(stdin, args...)
	require.NoError(c.t, err, "%v", args)
	return out
}

func TestMkfsAndRead(t *testing.T) {
	c := mkHarness(t)
	out := c.ok("", "mkfs", "--blocks", "32")
	assert.Contains(t, out, "32 blocks")

	out = c.ok("", "ls")
	assert.Contains(t, out, mkfs.WelcomeName)
	assert.Equal(t, mkfs.WelcomeBody, c.ok("", "cat", "/"+mkfs.WelcomeName))
	assert.Contains(t, c.ok("", "stat", "/"), "children 1")
	assert.Equal(t, "objects 2/64, free blocks 28/32\nclean\n", c.ok("", "fsck"))
}

func TestCreateAndWrite(t *testing.T) {
	c := mkHarness(t)
	c.ok("", "mkfs")
	c.ok("", "mkdir", "/docs")
	c.ok("", "touch", "/docs/a")
	c.ok("hello", "write", "/docs/b")
	assert.Equal(t, "hello", c.ok("", "cat", "/docs/b"))
	c.ok("hi", "write", "/docs/b")
	assert.Equal(t, "hi", c.ok("", "cat", "/docs/b"))

	out := c.ok("", "ls", "/docs")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], " a"))
	assert.True(t, strings.HasSuffix(lines[1], " b"))
	assert.Contains(t, c.ok("", "stat", "/docs/b"), "size 2")
	assert.Contains(t, c.ok("", "fsck"), "clean")
}

func TestCreateErrors(t *testing.T) {
	c := mkHarness(t)
	c.ok("", "mkfs")
	_, err := c.run("", "touch", "/"+mkfs.WelcomeName)
	assert.True(t, errors.Is(err, common.ErrExists))
	c.ok("", "--duplicates", "touch", "/"+mkfs.WelcomeName)

	_, err = c.run("", "cat", "/nope")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	_, err = c.run("", "touch", "/nope/a")
	assert.True(t, errors.Is(err, common.ErrNotFound))
	_, err = c.run("", "touch", "/")
	assert.True(t, errors.Is(err, common.ErrInvalidName))
	_, err = c.run(strings.Repeat("x", 4097), "write", "/big")
	assert.True(t, errors.Is(err, common.ErrFileTooBig))
	_, err = c.run("", "stat")
	assert.Error(t, err)
}

func TestNoImage(t *testing.T) {
	cleanEnv(t)
	app := newApp()
	app.Writer = ioutil.Discard
	app.ErrWriter = ioutil.Discard
	err := app.Run([]string{appName, "ls"})
	assert.True(t, errors.Is(err, ErrNoImage))
}

func TestDump(t *testing.T) {
	c := mkHarness(t)
	c.ok("", "mkfs")
	c.ok("", "mkdir", "/docs")
	out := c.ok("", "dump")

	var doc imageDump
	require.NoError(t, yaml.UnmarshalStrict([]byte(out), &doc))
	assert.Equal(t, "0x20200406", doc.Super.Magic)
	assert.Equal(t, uint64(3), doc.Super.InodesCount)
	require.Len(t, doc.Inodes, 3)
	assert.Equal(t, inodeDump{Inum: 1, Mode: "dir 0755", Data: 2, NChildren: 2}, doc.Inodes[0])
	assert.Equal(t, uint64(len(mkfs.WelcomeBody)), doc.Inodes[1].Size)
	assert.Equal(t, "dir 0755", doc.Inodes[2].Mode)
}
