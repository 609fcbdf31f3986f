package pathmap

import (
	"errors"
	"fmt"
	"testing"
)

func TestToMountConvertsDrivePaths(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`C:\work\chip.v`, "/mnt/c/work/chip.v"},
		{`D:\langG\4_bitcount.v`, "/mnt/d/langG/4_bitcount.v"},
		{`d:/designs/top.v`, "/mnt/d/designs/top.v"},
		{`E:\`, "/mnt/e/"},
		{`Z:`, "/mnt/z"},
	}
	for _, tc := range cases {
		got, err := ToMount(tc.in)
		if err != nil {
			t.Fatalf("ToMount(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ToMount(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRoundTripAllVolumes(t *testing.T) {
	for letter := 'a'; letter <= 'z'; letter++ {
		host := fmt.Sprintf(`%c:\proj\out\top_synthesized.v`, letter-'a'+'A')
		mounted, err := ToMount(host)
		if err != nil {
			t.Fatalf("ToMount(%q): %v", host, err)
		}
		back, err := FromMount(mounted)
		if err != nil {
			t.Fatalf("FromMount(%q): %v", mounted, err)
		}
		if back != host {
			t.Fatalf("round trip %q -> %q -> %q", host, mounted, back)
		}
	}
}

func TestToMountRejectsUnsupportedPaths(t *testing.T) {
	for _, in := range []string{
		"",
		"   ",
		`\\server\share\file.v`,
		`designs\top.v`,
		"/home/user/chip.v",
		`C:designs\top.v`,
	} {
		if _, err := ToMount(in); !errors.Is(err, ErrUnsupportedPath) {
			t.Fatalf("ToMount(%q) err = %v, want ErrUnsupportedPath", in, err)
		}
	}
}

func TestFromMountRejectsUnsupportedPaths(t *testing.T) {
	for _, in := range []string{
		"",
		"/mnt",
		"/mnt/",
		"/mnt/disk0/chip.v",
		"/opt/tools/chip.v",
		`C:\work\chip.v`,
	} {
		if _, err := FromMount(in); !errors.Is(err, ErrUnsupportedPath) {
			t.Fatalf("FromMount(%q) err = %v, want ErrUnsupportedPath", in, err)
		}
	}
}

func TestHasDrive(t *testing.T) {
	if !HasDrive(`C:\work`) {
		t.Fatal("expected drive prefix to be detected")
	}
	if HasDrive("/mnt/c/work") {
		t.Fatal("mount path should not look like a drive path")
	}
}
