// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package distro

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/moby/sys/mount"
	"golang.org/x/sys/unix"
)

// defaultSearchPath is used when the command environment has no PATH,
// matching the C library's execvp fallback.
const defaultSearchPath = "/bin:/usr/bin"

// pseudoMountOptions are applied to /proc and /sys inside the root.
const pseudoMountOptions = "nosuid,nodev,noexec"

type linuxSystem struct{}

// NewSystem returns the Linux implementation of [System].
func NewSystem() System {
	return linuxSystem{}
}

func (linuxSystem) Getresuid() (int, int, int) {
	return unix.Getresuid()
}

func (linuxSystem) Getresgid() (int, int, int) {
	return unix.Getresgid()
}

// Seteuid changes only the effective uid. x/sys/unix has no Seteuid on
// Linux; setresuid with -1 leaves the real and saved ids alone and, like
// every uid call there, applies to all threads of the process.
func (linuxSystem) Seteuid(euid int) error {
	return unix.Setresuid(-1, euid, -1)
}

func (linuxSystem) Setresuid(ruid, euid, suid int) error {
	return unix.Setresuid(ruid, euid, suid)
}

func (linuxSystem) Setresgid(rgid, egid, sgid int) error {
	return unix.Setresgid(rgid, egid, sgid)
}

func (linuxSystem) Lstat(path string) (fs.FileMode, error) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return 0, err
	}
	return fileMode(stat.Mode), nil
}

// fileMode converts the type bits of a raw st_mode into an fs.FileMode.
func fileMode(mode uint32) fs.FileMode {
	perm := fs.FileMode(mode & 0o777)
	switch mode & unix.S_IFMT {
	case unix.S_IFDIR:
		return perm | fs.ModeDir
	case unix.S_IFLNK:
		return perm | fs.ModeSymlink
	case unix.S_IFIFO:
		return perm | fs.ModeNamedPipe
	case unix.S_IFSOCK:
		return perm | fs.ModeSocket
	case unix.S_IFBLK:
		return perm | fs.ModeDevice
	case unix.S_IFCHR:
		return perm | fs.ModeDevice | fs.ModeCharDevice
	default:
		return perm
	}
}

func (linuxSystem) Unshare() error {
	return unix.Unshare(unix.CLONE_NEWNS | unix.CLONE_FS)
}

func (linuxSystem) MakeRPrivate(path string) error {
	return mount.MakeRPrivate(path)
}

func (linuxSystem) BindMount(source, root, relative string) error {
	// The mount is made on the opened descriptor rather than on a path,
	// so nothing can be swapped in between resolution and mount.
	targetFd, err := openMountpoint(root, relative)
	if err != nil {
		return err
	}
	defer unix.Close(targetFd)

	target := fmt.Sprintf("/proc/self/fd/%d", targetFd)
	return unix.Mount(source, target, "", unix.MS_BIND|unix.MS_REC, "")
}

// openMountpoint opens relative as an O_PATH directory descriptor,
// resolving every symlink on the way as if root were "/". Distribution
// roots with a merged /usr reach /lib and /bin through such links; an
// absolute or ".." link still lands inside root.
func openMountpoint(root, relative string) (int, error) {
	rootFd, err := unix.Open(root, unix.O_PATH|unix.O_DIRECTORY|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("opening root: %w", err)
	}
	defer unix.Close(rootFd)

	targetFd, err := unix.Openat2(rootFd, relative, &unix.OpenHow{
		Flags:   unix.O_PATH | unix.O_DIRECTORY | unix.O_CLOEXEC,
		Resolve: unix.RESOLVE_IN_ROOT | unix.RESOLVE_NO_MAGICLINKS,
	})
	if err != nil {
		return -1, fmt.Errorf("opening mountpoint: %w", err)
	}
	return targetFd, nil
}

func (linuxSystem) MountPseudo(fstype, target string) error {
	return mount.Mount(fstype, target, fstype, pseudoMountOptions)
}

func (linuxSystem) Chroot(path string) error {
	return unix.Chroot(path)
}

func (linuxSystem) Chdir(path string) error {
	return unix.Chdir(path)
}

func (linuxSystem) LookPath(file string, env []string) (string, error) {
	if strings.Contains(file, "/") {
		if err := checkExecutable(file); err != nil {
			return "", err
		}
		return file, nil
	}

	searchPath := defaultSearchPath
	for _, entry := range env {
		if value, ok := strings.CutPrefix(entry, "PATH="); ok {
			searchPath = value
		}
	}

	// Relative entries, including the empty one that means ".", are
	// skipped: the command would otherwise be found relative to whatever
	// directory the launch ends up in.
	for _, directory := range filepath.SplitList(searchPath) {
		if !filepath.IsAbs(directory) {
			continue
		}
		candidate := filepath.Join(directory, file)
		if checkExecutable(candidate) == nil {
			return candidate, nil
		}
	}
	return "", ErrNotFound
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode(); mode.IsDir() || mode&0o111 == 0 {
		return fs.ErrPermission
	}
	return nil
}

func (linuxSystem) Exec(path string, argv, env []string) error {
	return unix.Exec(path, argv, env)
}

func (linuxSystem) Start(path string, argv, env []string) (Process, error) {
	cmd := &exec.Cmd{
		Path:   path,
		Args:   argv,
		Env:    env,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		SysProcAttr: &syscall.SysProcAttr{
			// Delivered when the thread that started the child exits,
			// which is the supervising goroutine's locked thread.
			Pdeathsig: syscall.SIGKILL,
		},
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &childProcess{cmd: cmd}, nil
}

type childProcess struct {
	cmd *exec.Cmd
}

func (p *childProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *childProcess) Wait() (syscall.WaitStatus, error) {
	err := p.cmd.Wait()
	if p.cmd.ProcessState == nil {
		return 0, err
	}
	status, ok := p.cmd.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return 0, fmt.Errorf("unexpected wait status type %T", p.cmd.ProcessState.Sys())
	}
	return status, nil
}
