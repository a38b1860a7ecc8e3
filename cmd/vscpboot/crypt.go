package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-vscp/aes"
)

// Cipher modes of the encrypt and decrypt commands.
const (
	modeECB = "ecb"
	modeCBC = "cbc"
)

type cryptOptions struct {
	variant string
	mode    string
	iv      string
}

// newCryptCmd builds the encrypt command, or decrypt when encrypt is false.
func newCryptCmd(a *app, encrypt bool) *cobra.Command {
	o := &cryptOptions{}
	use, short := "decrypt <hex>", "Decrypt hex data with the frame cipher"
	if encrypt {
		use, short = "encrypt <hex>", "Encrypt hex data with the frame cipher"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

The key is the same --key used for frame encryption. The variant follows the
key length unless --variant is given. Data must be a whole number of 16 byte
blocks. In CBC mode encryption picks a random IV when --iv is not given and
prints it on its own line before the ciphertext.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := runCrypt(a, o, encrypt, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&o.variant, "variant", "", "aes128, aes192 or aes256 (default: from key length)")
	cmd.Flags().StringVarP(&o.mode, "mode", "m", modeCBC, "ecb or cbc")
	cmd.Flags().StringVar(&o.iv, "iv", "", "CBC initialisation vector in hex")
	return cmd
}

func runCrypt(a *app, o *cryptOptions, encrypt bool, input string) (string, error) {
	key, err := a.cfg.KeyBytes()
	if err != nil {
		return "", err
	}
	if len(key) == 0 {
		return "", errors.New("no key given (use --key)")
	}
	defer aes.Zero(key)

	var v aes.Variant
	if o.variant != "" {
		v, err = aes.ParseVariant(o.variant)
	} else {
		v, err = aes.VariantForKey(key)
	}
	if err != nil {
		return "", err
	}

	data, err := decodeHex("data", input)
	if err != nil {
		return "", err
	}
	dst := make([]byte, len(data))

	var sb strings.Builder
	switch strings.ToLower(o.mode) {
	case modeECB:
		if o.iv != "" {
			return "", errors.New("--iv is only used in cbc mode")
		}
		if encrypt {
			err = aes.ECBEncrypt(v, dst, data, key)
		} else {
			err = aes.ECBDecrypt(v, dst, data, key)
		}

	case modeCBC:
		var iv []byte
		switch {
		case o.iv != "":
			iv, err = decodeHex("iv", o.iv)
			if err != nil {
				return "", err
			}
		case encrypt:
			iv = make([]byte, aes.BlockSize)
			if _, err := aes.RandomIV(iv); err != nil {
				return "", err
			}
			fmt.Fprintf(&sb, "iv: %x\n", iv)
		default:
			return "", errors.New("cbc decryption needs --iv")
		}
		if encrypt {
			err = aes.CBCEncrypt(v, dst, data, key, iv)
		} else {
			err = aes.CBCDecrypt(v, dst, data, key, iv)
		}

	default:
		return "", fmt.Errorf("unknown mode %q (use ecb or cbc)", o.mode)
	}
	if err != nil {
		return "", err
	}

	a.log.Debug("cipher run", "variant", v.String(), "mode", o.mode, "bytes", len(data))
	fmt.Fprintf(&sb, "%x\n", dst)
	return sb.String(), nil
}

func decodeHex(what, s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return b, nil
}
