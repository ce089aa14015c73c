package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mrz1836/phantom-sandbox/internal/output"
	"github.com/mrz1836/phantom-sandbox/internal/wallet"
)

func runWalletList(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	names, err := cc.Storage.List()
	if err != nil {
		return err
	}

	summaries := make([]wallet.Summary, 0, len(names))
	for _, name := range names {
		meta, err := cc.Storage.LoadMetadata(name)
		if err != nil {
			cc.Log.Error("reading wallet %s: %v", name, err)
			continue
		}
		summaries = append(summaries, meta.ToSummary())
	}

	if cc.Fmt.IsJSON() {
		return writeJSON(w, summaries)
	}

	if len(summaries) == 0 {
		outln(w, "No wallets found.")
		outln(w, "Create one with: sandbox wallet create <name>")
		return nil
	}

	table := output.NewTable("NAME", "KIND", "ACCOUNTS", "PRIMARY", "CREATED")
	for _, s := range summaries {
		table.AddRow(s.Name, string(s.Kind), strconv.Itoa(s.Accounts), s.Primary, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	return table.Render(w)
}

func runWalletAccounts(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	meta, err := requireWallet(args[0], cc.Storage)
	if err != nil {
		return err
	}

	if cc.Fmt.IsJSON() {
		return writeJSON(w, meta.Accounts)
	}

	table := output.NewTable("INDEX", "ADDRESS", "PATH")
	for _, acct := range meta.Accounts {
		path := acct.Path
		if path == "" {
			path = "(imported)"
		}
		table.AddRow(strconv.Itoa(int(acct.Index)), acct.PublicKey.String(), path)
	}
	if err := table.Render(w); err != nil {
		return err
	}

	if accountsQR {
		acct, err := meta.Account(cc.Cfg.Wallet.Account)
		if err != nil {
			return err
		}
		outln(w)
		out(w, "Account %d:\n", acct.Index)
		return output.RenderAddressQR(w, acct.PublicKey.String())
	}
	return nil
}

func runWalletTrusted(cmd *cobra.Command, _ []string) error {
	cc := GetCmdContext(cmd)
	w := cmd.OutOrStdout()

	trust, err := wallet.LoadTrustList(trustPath(cc.Cfg))
	if err != nil {
		return err
	}

	origins := trust.Origins()
	if cc.Fmt.IsJSON() {
		return writeJSON(w, origins)
	}
	if len(origins) == 0 {
		outln(w, "No trusted origins.")
		return nil
	}
	for _, origin := range origins {
		out(w, "  - %s\n", origin)
	}
	return nil
}

func runWalletRevoke(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	trust, err := wallet.LoadTrustList(trustPath(cc.Cfg))
	if err != nil {
		return err
	}
	if err := trust.Revoke(args[0]); err != nil {
		return err
	}
	return output.FormatSuccess(cmd.OutOrStdout(), "Revoked "+args[0], cc.Fmt.Format())
}
