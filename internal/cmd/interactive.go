package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvatanabe/scm"
	"github.com/vvatanabe/scm/alert"
	"github.com/vvatanabe/scm/auth"
)

var errNoSession = errors.New("sessions are not available")

type Interactive struct {
	Client   scm.Client
	Session  *auth.Session
	Alerts   *alert.Feed
	Shipment *scm.Shipment
	Out      io.Writer
}

func (c *Interactive) Run(ctx context.Context, command string, params []string) error {
	switch command {
	case "h", "?", "help":
		return c.help(ctx, params)
	case "ls":
		return c.ls(ctx, params)
	case "create":
		return c.create(ctx, params)
	case "id":
		return c.id(ctx, params)
	case "info":
		return c.info(ctx, params)
	case "status":
		return c.status(ctx, params)
	case "condition":
		return c.condition(ctx, params)
	case "qty":
		return c.qty(ctx, params)
	case "eta":
		return c.eta(ctx, params)
	case "location", "loc":
		return c.location(ctx, params)
	case "checkpoint", "cp":
		return c.checkpoint(ctx, params)
	case "ntf", "notifications":
		return c.notifications(ctx, params)
	case "read":
		return c.read(ctx, params)
	case "metrics":
		return c.metrics(ctx, params)
	case "alerts":
		return c.alerts(ctx, params)
	case "login":
		return c.login(ctx, params)
	case "logout":
		return c.logout(ctx, params)
	case "whoami":
		return c.whoami(ctx, params)
	default:
		return errors.New(" ... unrecognized command!")
	}
}

func (c *Interactive) help(_ context.Context, _ []string) error {
	fmt.Fprintln(c.out(), `... this is Interactive HELP!
  > ls                                            [List all shipments]
  > create <batch> <crop> <kg> <origin> <dest>    [Create a shipment in status created; it becomes the current ID]
  > ntf                                           [List notifications, newest first]
  > read <notification-id>                        [Mark a notification read]
  > metrics                                       [Show total, delivered, delayed and on-time rate]
  > alerts [read|clear|delete <id>]               [Show or manage the alerts raised in this session]
  > login <role> [name] [email]                   [Log in as farmer, logistics, market-agent, buyer or admin]
  > logout                                        [Forget the logged-in user]
  > whoami                                        [Show the logged-in user]
  > id <id>                                       [Select a shipment by ID; Interactive is in the shipment mode, from that point on]
    > info                                        [Print the current shipment as JSON]
    > status <status>                             [created, in_transit, delayed, delivered or cancelled]
    > condition <condition>                       [good, fair or poor]
    > qty <kg>                                    [Set the quantity in kilograms]
    > eta <rfc3339>                               [Set the estimated time of arrival]
    > location <lat> <lng>                        [Set the current location]
    > checkpoint <name> <lat> <lng> [notes...]    [Append a checkpoint handled by the logged-in role]
  > id`)
	return nil
}

func (c *Interactive) ls(ctx context.Context, _ []string) error {
	out, err := c.Client.ListShipments(ctx, &scm.ListShipmentsInput{})
	if err != nil {
		return err
	}
	if len(out.Shipments) == 0 {
		fmt.Fprintln(c.out(), "No shipments yet!")
		return nil
	}
	fmt.Fprintln(c.out(), "List shipments:")
	for _, s := range out.Shipments {
		fmt.Fprintf(c.out(), "* ID: %s, batch: %s, crop: %s, status: %s\n", s.ID, s.BatchID, s.CropType, s.CurrentStatus)
	}
	return nil
}

func (c *Interactive) create(ctx context.Context, params []string) error {
	if len(params) < 5 {
		return errors.New("usage: create <batch> <crop> <kg> <origin> <dest>")
	}
	qty, err := parseQuantity(params[2])
	if err != nil {
		return err
	}
	in := &scm.CreateShipmentInput{
		BatchID:       params[0],
		CropType:      params[1],
		QuantityKg:    qty,
		Condition:     defaultCondition,
		Origin:        params[3],
		Destination:   params[4],
		CurrentStatus: defaultStatus,
	}
	if u, err := c.currentUser(); err == nil {
		assignOwner(in, u)
	}
	out, err := c.Client.CreateShipment(ctx, in)
	if err != nil {
		return err
	}
	c.Shipment = out.Shipment
	c.notify(out.Notification)
	printMessageWithData(c.out(), fmt.Sprintf("Shipment's [%s] was created:\n", out.Shipment.ID), out.Shipment)
	return nil
}

func (c *Interactive) id(ctx context.Context, params []string) error {
	if len(params) == 0 {
		c.Shipment = nil
		fmt.Fprintln(c.out(), "Going back to standard Interactive mode!")
		return nil
	}
	id := params[0]
	out, err := c.Client.GetShipment(ctx, &scm.GetShipmentInput{ID: id})
	if err != nil {
		return err
	}
	if out.Shipment == nil {
		return errorShipmentNotFound(id)
	}
	c.Shipment = out.Shipment
	printMessageWithData(c.out(), fmt.Sprintf("Shipment's [%s] record dump:\n", id), c.Shipment)
	return nil
}

func (c *Interactive) info(_ context.Context, _ []string) error {
	if c.Shipment == nil {
		return errorCLIModeRestriction("`info`")
	}
	printMessageWithData(c.out(), "Shipment's record dump:\n", c.Shipment)
	return nil
}

func (c *Interactive) status(ctx context.Context, params []string) error {
	if c.Shipment == nil {
		return errorCLIModeRestriction("`status`")
	}
	if len(params) == 0 {
		return errors.New("usage: status <status>")
	}
	st, err := scm.ParseShipmentStatus(params[0])
	if err != nil {
		return err
	}
	return c.update(ctx, &scm.UpdateShipmentInput{CurrentStatus: &st})
}

func (c *Interactive) condition(ctx context.Context, params []string) error {
	if c.Shipment == nil {
		return errorCLIModeRestriction("`condition`")
	}
	if len(params) == 0 {
		return errors.New("usage: condition <condition>")
	}
	cond, err := scm.ParseCondition(params[0])
	if err != nil {
		return err
	}
	return c.update(ctx, &scm.UpdateShipmentInput{Condition: &cond})
}

func (c *Interactive) qty(ctx context.Context, params []string) error {
	if c.Shipment == nil {
		return errorCLIModeRestriction("`qty`")
	}
	if len(params) == 0 {
		return errors.New("usage: qty <kg>")
	}
	q, err := parseQuantity(params[0])
	if err != nil {
		return err
	}
	return c.update(ctx, &scm.UpdateShipmentInput{QuantityKg: &q})
}

func (c *Interactive) eta(ctx context.Context, params []string) error {
	if c.Shipment == nil {
		return errorCLIModeRestriction("`eta`")
	}
	if len(params) == 0 {
		return errors.New("usage: eta <rfc3339>")
	}
	eta := params[0]
	return c.update(ctx, &scm.UpdateShipmentInput{ETA: &eta})
}

func (c *Interactive) location(ctx context.Context, params []string) error {
	if c.Shipment == nil {
		return errorCLIModeRestriction("`location`")
	}
	if len(params) < 2 {
		return errors.New("usage: location <lat> <lng>")
	}
	loc, err := parseCoordinates(params[0], params[1])
	if err != nil {
		return err
	}
	return c.update(ctx, &scm.UpdateShipmentInput{CurrentLocation: &loc})
}

func (c *Interactive) checkpoint(ctx context.Context, params []string) error {
	if c.Shipment == nil {
		return errorCLIModeRestriction("`checkpoint`")
	}
	if len(params) < 3 {
		return errors.New("usage: checkpoint <name> <lat> <lng> [notes...]")
	}
	u, err := c.currentUser()
	if err != nil {
		return err
	}
	loc, err := parseCoordinates(params[1], params[2])
	if err != nil {
		return err
	}
	return c.update(ctx, &scm.UpdateShipmentInput{
		CurrentLocation: &loc,
		AddCheckpoint: &scm.CheckpointInput{
			Name:        params[0],
			Location:    loc,
			HandlerRole: u.Role,
			Notes:       strings.Join(params[3:], " "),
		},
	})
}

func (c *Interactive) update(ctx context.Context, in *scm.UpdateShipmentInput) error {
	id := c.Shipment.ID
	in.ID = id
	out, err := c.Client.UpdateShipment(ctx, in)
	if err != nil {
		return errorWithID(err, id)
	}
	if out.Shipment == nil {
		c.Shipment = nil
		return errorShipmentNotFound(id)
	}
	c.Shipment = out.Shipment
	c.notify(out.Notification)
	printMessageWithData(c.out(), fmt.Sprintf("Shipment's [%s] was updated:\n", id), c.Shipment)
	return nil
}

func (c *Interactive) notifications(ctx context.Context, _ []string) error {
	out, err := c.Client.ListNotifications(ctx, &scm.ListNotificationsInput{})
	if err != nil {
		return err
	}
	if len(out.Notifications) == 0 {
		fmt.Fprintln(c.out(), "No notifications!")
		return nil
	}
	fmt.Fprintln(c.out(), "List notifications:")
	for _, n := range out.Notifications {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(c.out(), "%s ID: %s, type: %s, %s: %s\n", marker, n.ID, n.Type, n.Title, n.Message)
	}
	return nil
}

func (c *Interactive) read(ctx context.Context, params []string) error {
	if len(params) == 0 {
		return errors.New("usage: read <notification-id>")
	}
	id := params[0]
	out, err := c.Client.MarkNotificationRead(ctx, &scm.MarkNotificationReadInput{ID: id})
	if err != nil {
		return err
	}
	if out.Notification == nil {
		return errorNotificationNotFound(id)
	}
	fmt.Fprintf(c.out(), "Notification's [%s] marked read.\n", id)
	return nil
}

func (c *Interactive) metrics(ctx context.Context, _ []string) error {
	out, err := c.Client.GetPerformanceMetrics(ctx, &scm.GetPerformanceMetricsInput{})
	if err != nil {
		return err
	}
	printMetrics(c.out(), out.Metrics)
	return nil
}

func (c *Interactive) alerts(_ context.Context, params []string) error {
	if c.Alerts == nil {
		c.Alerts = alert.NewFeed()
	}
	if len(params) > 0 {
		switch params[0] {
		case "read":
			c.Alerts.MarkAllRead()
		case "clear":
			c.Alerts.Clear()
		case "delete":
			if len(params) < 2 {
				return errors.New("usage: alerts delete <id>")
			}
			if !c.Alerts.Delete(params[1]) {
				return fmt.Errorf("Alert's [%s] not found!", params[1])
			}
		default:
			return fmt.Errorf("unknown alerts action %q", params[0])
		}
	}
	list := c.Alerts.List()
	fmt.Fprintf(c.out(), "Alerts (%d unread):\n", c.Alerts.UnreadCount())
	for _, a := range list {
		marker := " "
		if !a.Read {
			marker = "*"
		}
		fmt.Fprintf(c.out(), "%s ID: %s, [%s] %s: %s\n", marker, a.ID, a.Kind, a.Title, a.Message)
	}
	return nil
}

func (c *Interactive) login(_ context.Context, params []string) error {
	if c.Session == nil {
		return errNoSession
	}
	if len(params) == 0 {
		return errors.New("usage: login <role> [name] [email]")
	}
	role, err := scm.ParseHandlerRole(params[0])
	if err != nil {
		return err
	}
	var name, email string
	if len(params) > 1 {
		name = params[1]
	}
	if len(params) > 2 {
		email = params[2]
	}
	u, err := c.Session.Login(name, email, role)
	if err != nil {
		return err
	}
	c.push(alert.KindSuccess, "Login Successful", fmt.Sprintf("Welcome, %s!", u.Name))
	printMessageWithData(c.out(), "Logged in:\n", u)
	return nil
}

func (c *Interactive) logout(_ context.Context, _ []string) error {
	if c.Session == nil {
		return errNoSession
	}
	if err := c.Session.Logout(); err != nil {
		return err
	}
	c.push(alert.KindInfo, "Logged Out", "You have been logged out.")
	fmt.Fprintln(c.out(), "Logged out.")
	return nil
}

func (c *Interactive) whoami(_ context.Context, _ []string) error {
	u, err := c.currentUser()
	if err != nil {
		return err
	}
	printMessageWithData(c.out(), "", u)
	return nil
}

func (c *Interactive) currentUser() (*auth.User, error) {
	if c.Session == nil {
		return nil, errNoSession
	}
	return c.Session.Current()
}

// notify mirrors a core notification into the session's alert feed.
func (c *Interactive) notify(n *scm.Notification) {
	if n == nil {
		return
	}
	kind := alert.KindSuccess
	if n.Type == scm.NotificationDelay {
		kind = alert.KindWarning
	}
	c.push(kind, n.Title, n.Message)
}

func (c *Interactive) push(kind alert.Kind, title, message string) {
	if c.Alerts != nil {
		c.Alerts.Push(kind, title, message)
	}
}

func (c *Interactive) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}
