package main

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/spf13/cobra"

	"wagerex/internal/common"
	wagernet "wagerex/internal/net"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var serverAddr string

	root := &cobra.Command{
		Use:   "wagerex-client",
		Short: "Talks to a wagerex server over its TCP wire protocol",
	}
	root.PersistentFlags().StringVar(&serverAddr, "server", "127.0.0.1:7700", "address of the wagerex server")

	root.AddCommand(
		newPlaceCmd(&serverAddr),
		newCancelCmd(&serverAddr),
		newExpireCmd(&serverAddr),
		newResultCmd(&serverAddr),
		newSettleCmd(&serverAddr),
		newBookCmd(&serverAddr),
	)
	return root
}

func newPlaceCmd(serverAddr *string) *cobra.Command {
	var market, selection, odds, stake, nonce, now uint64
	var side, token, owner string

	cmd := &cobra.Command{
		Use:   "place",
		Short: "Place a back or lay order against a market selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := common.Back
			if side == "lay" {
				s = common.Lay
			}
			body := make([]byte, 0, wagernet.PlaceOrderFixedLen()+len(token)+len(owner))
			header := make([]byte, wagernet.PlaceOrderFixedLen())
			binary.BigEndian.PutUint64(header[0:8], market)
			binary.BigEndian.PutUint64(header[8:16], selection)
			header[16] = byte(s)
			binary.BigEndian.PutUint64(header[17:25], odds)
			binary.BigEndian.PutUint64(header[25:33], stake)
			binary.BigEndian.PutUint64(header[33:41], nonce)
			binary.BigEndian.PutUint64(header[41:49], now)
			header[49] = byte(len(token))
			header[50] = byte(len(owner))
			body = append(body, header...)
			body = append(body, []byte(token)...)
			body = append(body, []byte(owner)...)
			return sendAndPrint(*serverAddr, wagernet.PlaceOrder, body)
		},
	}
	cmd.Flags().Uint64Var(&market, "market", 0, "market id")
	cmd.Flags().Uint64Var(&selection, "selection", 0, "selection id")
	cmd.Flags().StringVar(&side, "side", "back", "back or lay")
	cmd.Flags().Uint64Var(&odds, "odds", 0, "fixed-point odds, scale 100 (e.g. 250 = 2.50)")
	cmd.Flags().Uint64Var(&stake, "stake", 0, "stake, scale 100 (e.g. 10000 = 100.00)")
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "payment token nonce passed to the ledger on refunds and payouts")
	cmd.Flags().Uint64Var(&now, "now", 0, "current unix timestamp")
	cmd.Flags().StringVar(&token, "token", "", "settlement currency token")
	cmd.Flags().StringVar(&owner, "owner", "", "placing account")
	return cmd
}

func newCancelCmd(serverAddr *string) *cobra.Command {
	var orderID, now uint64
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an order's unmatched residual",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := make([]byte, 16)
			binary.BigEndian.PutUint64(body[0:8], orderID)
			binary.BigEndian.PutUint64(body[8:16], now)
			return sendAndPrint(*serverAddr, wagernet.CancelOrder, body)
		},
	}
	cmd.Flags().Uint64Var(&orderID, "order", 0, "order id to cancel")
	cmd.Flags().Uint64Var(&now, "now", 0, "current unix timestamp")
	return cmd
}

func newExpireCmd(serverAddr *string) *cobra.Command {
	var market, now uint64
	cmd := &cobra.Command{
		Use:   "expire",
		Short: "Close a market whose close timestamp has passed and refund resting orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := make([]byte, 16)
			binary.BigEndian.PutUint64(body[0:8], market)
			binary.BigEndian.PutUint64(body[8:16], now)
			return sendAndPrint(*serverAddr, wagernet.Expire, body)
		},
	}
	cmd.Flags().Uint64Var(&market, "market", 0, "market id")
	cmd.Flags().Uint64Var(&now, "now", 0, "current unix timestamp")
	return cmd
}

func newResultCmd(serverAddr *string) *cobra.Command {
	var market uint64
	var scoreHome, scoreAway uint32
	var caller string
	cmd := &cobra.Command{
		Use:   "result",
		Short: "Record a closed market's final score",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := make([]byte, 17+len(caller))
			binary.BigEndian.PutUint64(body[0:8], market)
			binary.BigEndian.PutUint32(body[8:12], scoreHome)
			binary.BigEndian.PutUint32(body[12:16], scoreAway)
			body[16] = byte(len(caller))
			copy(body[17:], caller)
			return sendAndPrint(*serverAddr, wagernet.SetResult, body)
		},
	}
	cmd.Flags().Uint64Var(&market, "market", 0, "market id")
	cmd.Flags().Uint32Var(&scoreHome, "home", 0, "home team score")
	cmd.Flags().Uint32Var(&scoreAway, "away", 0, "away team score")
	cmd.Flags().StringVar(&caller, "caller", "", "account authorised to set the result")
	return cmd
}

func newSettleCmd(serverAddr *string) *cobra.Command {
	var market uint64
	var batchSize uint32
	cmd := &cobra.Command{
		Use:   "settle",
		Short: "Advance a settled market's settlement cursor",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := make([]byte, 12)
			binary.BigEndian.PutUint64(body[0:8], market)
			binary.BigEndian.PutUint32(body[8:12], batchSize)
			return sendAndPrint(*serverAddr, wagernet.SettleBatch, body)
		},
	}
	cmd.Flags().Uint64Var(&market, "market", 0, "market id")
	cmd.Flags().Uint32Var(&batchSize, "batch-size", 100, "maximum orders to settle in this call")
	return cmd
}

func newBookCmd(serverAddr *string) *cobra.Command {
	var market, selection uint64
	var side string
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Query a market selection's current depth and best odds",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := common.Back
			if side == "lay" {
				s = common.Lay
			}
			body := make([]byte, 17)
			binary.BigEndian.PutUint64(body[0:8], market)
			binary.BigEndian.PutUint64(body[8:16], selection)
			body[16] = byte(s)
			return sendAndPrint(*serverAddr, wagernet.GetBook, body)
		},
	}
	cmd.Flags().Uint64Var(&market, "market", 0, "market id")
	cmd.Flags().Uint64Var(&selection, "selection", 0, "selection id")
	cmd.Flags().StringVar(&side, "side", "back", "back or lay")
	return cmd
}

// sendAndPrint writes one message to the server and prints the single
// reply it sends back.
func sendAndPrint(serverAddr string, typ wagernet.MessageType, body []byte) error {
	conn, err := net.Dial("tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", serverAddr, err)
	}
	defer conn.Close()

	header := make([]byte, 2)
	binary.BigEndian.PutUint16(header, uint16(typ))
	if _, err := conn.Write(append(header, body...)); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		return fmt.Errorf("read reply: %w", err)
	}
	printReply(buf[:n])
	return nil
}

func printReply(buf []byte) {
	if len(buf) == 0 {
		fmt.Println("(no reply)")
		return
	}
	switch wagernet.ReportType(buf[0]) {
	case wagernet.ErrorReport:
		fmt.Printf("error: %s\n", wagernet.ErrorText(buf))
	case wagernet.BookReport:
		snap, err := wagernet.ParseBookSnapshot(buf)
		if err != nil {
			fmt.Printf("malformed book snapshot: %v\n", err)
			return
		}
		fmt.Printf("market=%d selection=%d best_back=%d best_lay=%d back_liquidity=%s lay_liquidity=%s\n",
			snap.Market, snap.Selection, snap.BestBackOdds, snap.BestLayOdds,
			snap.BackLiquidity.String(), snap.LayLiquidity.String())
	case wagernet.SettlementBatchReport:
		rep, err := wagernet.ParseSettlementReport(buf)
		if err != nil {
			fmt.Printf("malformed settlement report: %v\n", err)
			return
		}
		fmt.Printf("market=%d cursor=%d status=%s\n", rep.Market, rep.Cursor, rep.Status)
	case wagernet.PlacementReport, wagernet.FillReport:
		rep, err := wagernet.ParseReport(buf)
		if err != nil {
			fmt.Printf("malformed report: %v\n", err)
			return
		}
		fmt.Printf("order=%d status=%s matched=%s unmatched=%s potential_profit=%s\n",
			rep.OrderID, rep.Status, rep.Matched.String(), rep.Unmatched.String(), rep.PotentialProfit.String())
	default:
		fmt.Printf("unrecognised reply type %d (%d bytes)\n", buf[0], len(buf))
	}
}
