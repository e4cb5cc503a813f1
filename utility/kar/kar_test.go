// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/mmap"

	"github.com/devblok/koru/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
	testString3 = strings.Repeat("koru ", 10000)
)

func build(t *testing.T, files ...string) []byte {
	t.Helper()
	builder, err := kar.NewBuilder(kar.Header{
		Author:  "devblok",
		Version: 1,
	})
	require.NoError(t, err)
	defer builder.Close()

	for i := 0; i < len(files); i += 2 {
		require.NoError(t, builder.Add(files[i], strings.NewReader(files[i+1])))
	}

	var buf bytes.Buffer
	written, err := builder.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), written)
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	data := build(t, "test", testString1, "dir/test2", testString2, "big", testString3, "empty", "")

	ar, err := kar.Open(bytes.NewReader(data))
	require.NoError(t, err)
	defer ar.Close()

	header := ar.Header()
	assert.Equal(t, "devblok", header.Author)
	assert.Equal(t, int64(1), header.Version)
	assert.NotZero(t, header.DateCreated)
	assert.Equal(t, []string{"test", "dir/test2", "big", "empty"}, ar.Names())

	for name, expected := range map[string]string{
		"test":      testString1,
		"dir/test2": testString2,
		"big":       testString3,
		"empty":     "",
	} {
		got, err := ar.ReadAll(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, string(got), name)
	}

	entry, err := ar.Stat("big")
	require.NoError(t, err)
	assert.Equal(t, int64(len(testString3)), entry.Size)
	assert.Less(t, entry.CompressedSize, entry.Size, "repetitive data compresses")
}

func TestReaderStreams(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(build(t, "test", testString1)))
	require.NoError(t, err)

	f, err := ar.Open("test")
	require.NoError(t, err)
	assert.Equal(t, "test", f.Name())
	assert.Equal(t, int64(len(testString1)), f.Size())

	result, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, testString1, string(result))
}

func TestNotFound(t *testing.T) {
	ar, err := kar.Open(bytes.NewReader(build(t, "test", testString1)))
	require.NoError(t, err)

	_, err = ar.ReadAll("missing")
	assert.True(t, errors.Is(err, kar.ErrNotFound))
	_, err = ar.Open("missing")
	assert.ErrorIs(t, err, kar.ErrNotFound)
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{})
	require.NoError(t, err)
	defer builder.Close()

	require.NoError(t, builder.Add("a", strings.NewReader(testString1)))
	assert.ErrorIs(t, builder.Add("a", strings.NewReader(testString2)), kar.ErrDuplicate)
	assert.Equal(t, 1, builder.Len())
}

func TestBuilderConcurrentAdd(t *testing.T) {
	builder, err := kar.NewBuilder(kar.Header{})
	require.NoError(t, err)
	defer builder.Close()

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			assert.NoError(t, builder.Add(name, strings.NewReader(strings.Repeat(name, 1000))))
		}(name)
	}
	wg.Wait()

	var buf bytes.Buffer
	_, err = builder.WriteTo(&buf)
	require.NoError(t, err)

	ar, err := kar.Open(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.ElementsMatch(t, names, ar.Names())
	for _, name := range names {
		got, err := ar.ReadAll(name)
		require.NoError(t, err)
		assert.Equal(t, strings.Repeat(name, 1000), string(got))
	}
}

func TestOpenRejectsInvalidData(t *testing.T) {
	valid := build(t, "test", testString1)

	cases := map[string][]byte{
		"empty":     {},
		"bad magic": append([]byte("TAR\x00"), valid[4:]...),
		"truncated": valid[:len(valid)-5],
		"short":     valid[:10],
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := kar.Open(bytes.NewReader(data))
			assert.ErrorIs(t, err, kar.ErrFileFormat)
		})
	}
}

func writeArchive(t *testing.T, data []byte) string {
	path := filepath.Join(t.TempDir(), "test.kar")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestOpenmmap(t *testing.T) {
	path := writeArchive(t, build(t, "test", testString1, "big", testString3))

	r, err := mmap.Open(path)
	require.NoError(t, err)
	defer r.Close()

	ar, err := kar.Open(r)
	require.NoError(t, err)
	got, err := ar.ReadAll("big")
	require.NoError(t, err)
	assert.Equal(t, testString3, string(got))
}

func TestOpenFile(t *testing.T) {
	path := writeArchive(t, build(t, "test", testString1, "test2", testString2))

	ar, err := kar.OpenFile(path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := ar.ReadAll("test2")
			assert.NoError(t, err)
			assert.Equal(t, testString2, string(got))
		}()
	}
	wg.Wait()
	assert.NoError(t, ar.Close())

	_, err = kar.OpenFile(filepath.Join(t.TempDir(), "missing.kar"))
	assert.Error(t, err)

	_, err = kar.OpenFile(writeArchive(t, []byte("definitely not kar")))
	assert.ErrorIs(t, err, kar.ErrFileFormat)
}

func BenchmarkReadAll(b *testing.B) {
	builder, err := kar.NewBuilder(kar.Header{})
	if err != nil {
		b.Fatal(err)
	}
	defer builder.Close()
	if err := builder.Add("big", strings.NewReader(testString3)); err != nil {
		b.Fatal(err)
	}
	var buf bytes.Buffer
	if _, err := builder.WriteTo(&buf); err != nil {
		b.Fatal(err)
	}
	ar, err := kar.Open(bytes.NewReader(buf.Bytes()))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ar.ReadAll("big"); err != nil {
			b.Fatal(err)
		}
	}
}
