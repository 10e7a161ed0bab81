package staycli

import (
	"encoding/json"
	"fmt"
	"io"
	offeringservice "staybook/internal/offerings/service"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/session"
	"text/tabwriter"

	"github.com/urfave/cli/v2"
)

const (
	FlagServer      = "server"
	FlagSessionFile = "session-file"
	FlagJSON        = "json"

	EnvServer = "STAYBOOK_SERVER"
)

// Env is what a command runs against. Close releases the backend's connections.
type Env struct {
	Backend  Backend
	Sessions session.Store
	Close    func()
}

// Opener builds the Env for one invocation from the global flags.
type Opener func(c *cli.Context) (*Env, error)

func NewApp(open Opener, out io.Writer) *cli.App {
	r := &runner{open: open}
	return &cli.App{
		Name:      "staycli",
		Usage:     "search hotels and manage your bookings",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    FlagServer,
				Usage:   "staybook server URL; the document store is used directly when empty",
				EnvVars: []string{EnvServer},
			},
			&cli.StringFlag{
				Name:    FlagSessionFile,
				Usage:   "where the signed-in email is kept",
				Value:   config.DefaultSessionFile,
				EnvVars: []string{config.EnvSessionFile},
			},
			&cli.BoolFlag{
				Name:  FlagJSON,
				Usage: "print JSON instead of tables",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "register",
				Usage:     "create an account",
				ArgsUsage: "EMAIL PASSWORD",
				Flags:     []cli.Flag{&cli.StringFlag{Name: "name"}},
				Action:    r.with(register),
			},
			{
				Name:      "login",
				Usage:     "sign in and remember the session",
				ArgsUsage: "EMAIL PASSWORD",
				Action:    r.with(login),
			},
			{
				Name:   "logout",
				Usage:  "forget the session",
				Action: r.with(logout),
			},
			{
				Name:   "whoami",
				Usage:  "show the signed-in email",
				Action: r.with(whoami),
			},
			{
				Name:   "locations",
				Usage:  "list catalog locations",
				Action: r.with(locations),
			},
			{
				Name:   "room-types",
				Usage:  "list catalog room types",
				Action: r.with(roomTypes),
			},
			{
				Name:  "search",
				Usage: "find offerings with rooms left",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Required: true},
					&cli.StringFlag{Name: "room-type", Required: true},
					&cli.StringFlag{Name: "date", Required: true, Usage: "YYYY-MM-DD"},
				},
				Action: r.with(search),
			},
			{
				Name:   "availability",
				Usage:  "check whether a slot is free",
				Flags:  slotFlags(),
				Action: r.with(availability),
			},
			{
				Name:   "book",
				Usage:  "book a slot for the signed-in user",
				Flags:  slotFlags(),
				Action: r.with(book),
			},
			{
				Name:  "bookings",
				Usage: "list your bookings",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "refresh", Usage: "drop pending bookings and show only stored ones"},
				},
				Action: r.with(bookings),
			},
			{
				Name:      "cancel",
				Usage:     "cancel one of your bookings",
				ArgsUsage: "KEY",
				Action:    r.with(cancelBooking),
			},
			{
				Name:   "watch",
				Usage:  "print the catalog on every change until interrupted",
				Action: r.with(watch),
			},
		},
	}
}

func slotFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "hotel", Required: true},
		&cli.StringFlag{Name: "date", Required: true, Usage: "YYYY-MM-DD"},
		&cli.StringFlag{Name: "room-type", Required: true},
	}
}

type runner struct {
	open Opener
}

type command func(c *cli.Context, env *Env) error

func (r *runner) with(cmd command) cli.ActionFunc {
	return func(c *cli.Context) error {
		env, err := r.open(c)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		if env.Close != nil {
			defer env.Close()
		}
		if err := cmd(c, env); err != nil {
			return cli.Exit(describe(err), exitCode(err))
		}
		return nil
	}
}

func describe(err error) string {
	appErr := apperrors.AsAppError(err)
	if appErr.Code == apperrors.CodeInternal {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("error: %s (%s)", appErr.Message, appErr.Code)
}

func exitCode(err error) int {
	if apperrors.IsRetryable(err) {
		return 3
	}
	return 1
}

func args(c *cli.Context, names ...string) ([]string, error) {
	if c.NArg() != len(names) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("expected arguments: %v", names))
	}
	return c.Args().Slice(), nil
}

func register(c *cli.Context, env *Env) error {
	a, err := args(c, "EMAIL", "PASSWORD")
	if err != nil {
		return err
	}
	email, err := env.Backend.Register(c.Context, a[0], c.String("name"), a[1])
	if err != nil {
		return err
	}
	if err := env.Sessions.SetCurrentUserEmail(c.Context, email); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Registered and signed in as %s\n", email)
	return nil
}

func login(c *cli.Context, env *Env) error {
	a, err := args(c, "EMAIL", "PASSWORD")
	if err != nil {
		return err
	}
	email, err := env.Backend.Login(c.Context, a[0], a[1])
	if err != nil {
		return err
	}
	if err := env.Sessions.SetCurrentUserEmail(c.Context, email); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Signed in as %s\n", email)
	return nil
}

func logout(c *cli.Context, env *Env) error {
	if err := env.Sessions.Clear(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "Signed out")
	return nil
}

func whoami(c *cli.Context, env *Env) error {
	email, ok, err := env.Sessions.CurrentUserEmail(c.Context)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(c.App.Writer, "Not signed in")
		return nil
	}
	fmt.Fprintln(c.App.Writer, email)
	return nil
}

func locations(c *cli.Context, env *Env) error {
	values, err := env.Backend.Locations(c.Context)
	if err != nil {
		return err
	}
	return printValues(c, values)
}

func roomTypes(c *cli.Context, env *Env) error {
	values, err := env.Backend.RoomTypes(c.Context)
	if err != nil {
		return err
	}
	return printValues(c, values)
}

func search(c *cli.Context, env *Env) error {
	offerings, err := env.Backend.Search(c.Context, offeringservice.SearchCriteria{
		Location: c.String("location"),
		RoomType: c.String("room-type"),
		Date:     c.String("date"),
	})
	if err != nil {
		return err
	}
	return printOfferings(c, offerings)
}

func availability(c *cli.Context, env *Env) error {
	hotelID, date, roomType := c.String("hotel"), c.String("date"), c.String("room-type")
	available, err := env.Backend.IsAvailable(c.Context, hotelID, date, roomType)
	if err != nil {
		return err
	}
	if c.Bool(FlagJSON) {
		return printJSON(c, map[string]any{
			"hotel_id":  hotelID,
			"date":      date,
			"room_type": roomType,
			"available": available,
		})
	}
	if available {
		fmt.Fprintln(c.App.Writer, "Available")
	} else {
		fmt.Fprintln(c.App.Writer, "Already booked")
	}
	return nil
}

func book(c *cli.Context, env *Env) error {
	offering, err := env.Backend.Offering(c.Context, c.String("hotel"), c.String("date"), c.String("room-type"))
	if err != nil {
		return err
	}
	record, err := env.Backend.Reserve(c.Context, offering)
	if err != nil {
		return err
	}
	if c.Bool(FlagJSON) {
		return printJSON(c, record)
	}
	fmt.Fprintf(c.App.Writer, "Booked %s\n", record.Key)
	return nil
}

func bookings(c *cli.Context, env *Env) error {
	records, err := env.Backend.ListBookings(c.Context, c.Bool("refresh"))
	if err != nil {
		return err
	}
	if c.Bool(FlagJSON) {
		return printJSON(c, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(c.App.Writer, "No bookings")
		return nil
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tHOTEL\tLOCATION\tDATE\tROOM TYPE\tPRICE\tBOOKED AT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			r.Key, r.HotelName, r.Location, r.Date, r.RoomType, r.PricePerNight, r.BookedAt)
	}
	return tw.Flush()
}

func cancelBooking(c *cli.Context, env *Env) error {
	a, err := args(c, "KEY")
	if err != nil {
		return err
	}
	if err := env.Backend.Cancel(c.Context, a[0]); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Cancelled %s\n", a[0])
	return nil
}

func watch(c *cli.Context, env *Env) error {
	stop, err := env.Backend.WatchOfferings(c.Context, func(offerings []*model.Offering) {
		if err := printOfferings(c, offerings); err != nil {
			fmt.Fprintln(c.App.ErrWriter, "error:", err)
		}
	})
	if err != nil {
		return err
	}
	defer stop()
	<-c.Context.Done()
	return nil
}

func printValues(c *cli.Context, values []string) error {
	if c.Bool(FlagJSON) {
		return printJSON(c, values)
	}
	for _, v := range values {
		fmt.Fprintln(c.App.Writer, v)
	}
	return nil
}

func printOfferings(c *cli.Context, offerings []*model.Offering) error {
	if c.Bool(FlagJSON) {
		return printJSON(c, offerings)
	}
	if len(offerings) == 0 {
		fmt.Fprintln(c.App.Writer, "No offerings")
		return nil
	}
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOTEL ID\tHOTEL\tLOCATION\tDATE\tROOM TYPE\tPRICE\tAVAILABLE")
	for _, o := range offerings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%.2f\t%d/%d\n",
			o.HotelID, o.HotelName, o.Location, o.Date, o.RoomType, o.PricePerNight, o.Available, o.Total)
	}
	return tw.Flush()
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
