package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/grinry/rwallet/pkg/swap"
)

// messages renders the notification keys the swap engine emits. Unknown keys,
// such as customized server messages, are printed as they are.
var messages = map[string]string{
	"modal.txFailed.title":                         "Transaction failed",
	"modal.txFailed.contactService":                "Something went wrong. Please contact customer service.",
	"modal.txFailed.moreBTC":                       "Not enough BTC to pay the network fee.",
	"modal.txFailed.moreRBTC":                      "Not enough RBTC to pay the network fee.",
	"modal.txFailed.moreRIF":                       "Not enough RIF for this transaction.",
	"modal.txFailed.moreBalance":                   "Not enough balance for this transaction.",
	"modal.txFailed.serverTimeout":                 "The server timed out. Please try again.",
	"modal.defaultError.title":                     "Unable to get a quote",
	"modal.defaultError.body":                      "The exchange rate could not be loaded.",
	"modal.swap.title":                             "No assets",
	"modal.swap.body":                              "Add an asset to your wallet to start swapping.",
	"page.wallet.swap.errorSourceAmount":           "Enter an amount to swap.",
	"page.wallet.swap.errorDestAmount":             "The amount to receive is unknown.",
	"page.wallet.swap.errorBalanceEnough":          "Not enough balance.",
	"page.wallet.swap.errorAmountInRange.tooSmall": "Amount is below the minimum of",
	"page.wallet.swap.errorAmountInRange.tooBig":   "Amount is above the maximum of",
	"button.retry":                                 "Retry",
	"button.addAsset":                              "Add asset",
}

func message(key string) string {
	if text, ok := messages[key]; ok {
		return text
	}
	return key
}

// consoleNotifier prints engine notifications and asks confirmations on stdin.
// With autoRetries set, that many confirmations are accepted without asking.
type consoleNotifier struct {
	autoRetries int
}

func (n *consoleNotifier) AddNotification(v swap.Notification) {
	title := message(v.TitleKey)
	if v.Kind == swap.KindError {
		color.Red("\n%s", title)
	} else {
		color.Yellow("\n%s", title)
	}
	fmt.Printf("  %s\n", message(v.MessageKey))
}

func (n *consoleNotifier) AddConfirmation(c swap.Confirmation) {
	color.Red("\n%s", message(c.TitleKey))
	fmt.Printf("  %s\n", message(c.MessageKey))

	accept := n.autoRetries > 0
	if accept {
		n.autoRetries--
	} else {
		accept = confirm(message(c.ConfirmKey) + "?")
	}

	if accept {
		if c.Confirm != nil {
			c.Confirm()
		}
		return
	}
	if c.Cancel != nil {
		c.Cancel()
	}
}

func (n *consoleNotifier) RemoveConfirmation() {}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
