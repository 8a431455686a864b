package bench

import (
	"bufio"
	"context"
	"strconv"
	"strings"

	"github.com/google/safeopen"
	"github.com/samber/lo"

	"github.com/benz9527/rbzip/lib/infra"
)

// valueOf marks every tenth key, the fold counts the marked ones.
func valueOf(key int) bool {
	return key%10 == 0
}

func (opts *Options) loadKeys(ctx context.Context) ([]int, error) {
	switch opts.order {
	case Descending:
		return lo.Reverse(lo.Range(opts.size)), nil
	case Ascending:
		return lo.Range(opts.size), nil
	case Shuffled:
		return lo.Shuffle(lo.Range(opts.size)), nil
	case FromFile:
		return readKeysFile(ctx, opts.keysDir, opts.keysFile)
	default:
	}
	return nil, infra.NewErrorStack("unknown key order " + opts.order.String())
}

// readKeysFile parses one integer key per line. Blank lines and lines
// starting with '#' are skipped. The file must resolve beneath dir.
func readKeysFile(ctx context.Context, dir, name string) ([]int, error) {
	f, err := safeopen.OpenBeneath(dir, name)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "open keys file")
	}
	defer func() {
		_ = f.Close()
	}()

	keys := make([]int, 0, 1024)
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		if lineNo%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, infra.WrapErrorStackWithMessage(err, "read keys file")
			}
		}
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		key, err := strconv.Atoi(line)
		if err != nil {
			return nil, infra.WrapErrorStackWithMessage(err, name+":"+strconv.Itoa(lineNo))
		}
		keys = append(keys, key)
	}
	if err := scanner.Err(); err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "read keys file")
	}
	return keys, nil
}
