package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vvatanabe/scm"
	"github.com/vvatanabe/scm/auth"
)

type runWithClient func(ctx context.Context, cmd *cobra.Command, client scm.Client) error

func (f CommandFactory) withClient(flgs *Flags, run runWithClient) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx := commandContext(cmd)
		client, err := f.createClient(ctx, flgs)
		if err != nil {
			return err
		}
		return run(ctx, cmd, client)
	}
}

// withStoredClient is withClient for commands whose changes must outlive the process.
func (f CommandFactory) withStoredClient(flgs *Flags, run runWithClient) func(*cobra.Command, []string) error {
	withClient := f.withClient(flgs, run)
	return func(cmd *cobra.Command, args []string) error {
		f.warnMemoryBackend(cmd, flgs)
		return withClient(cmd, args)
	}
}

type LSResult struct {
	Shipments []ShipmentSummary `json:"shipments"`
}

type ShipmentSummary struct {
	ID            string             `json:"id"`
	BatchID       string             `json:"batch_id"`
	CropType      string             `json:"crop_type"`
	CurrentStatus scm.ShipmentStatus `json:"current_status"`
}

func (f CommandFactory) createLSCommand(flgs *Flags) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List all shipments",
		Long:  `List all shipments.`,
		RunE: f.withClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			out, err := client.ListShipments(ctx, &scm.ListShipmentsInput{})
			if err != nil {
				return err
			}
			result := LSResult{Shipments: []ShipmentSummary{}}
			for _, s := range out.Shipments {
				result.Shipments = append(result.Shipments, ShipmentSummary{
					ID:            s.ID,
					BatchID:       s.BatchID,
					CropType:      s.CropType,
					CurrentStatus: s.CurrentStatus,
				})
			}
			printMessageWithData(cmd.OutOrStdout(), "", result)
			return nil
		}),
	}
}

func (f CommandFactory) createGetCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "get",
		Short: "Get a shipment by ID",
		Long:  `Get a shipment by ID.`,
		RunE: f.withClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			out, err := client.GetShipment(ctx, &scm.GetShipmentInput{ID: flgs.ID})
			if err != nil {
				return err
			}
			if out.Shipment == nil {
				return errorShipmentNotFound(flgs.ID)
			}
			printMessageWithData(cmd.OutOrStdout(), "", out.Shipment)
			return nil
		}),
	}
	stringFlag(c, &flgs.ID, flagMap.ID)
	return c
}

func (f CommandFactory) createCreateCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a shipment",
		Long: `Create a shipment. The shipment starts without checkpoints.

` + memoryBackendNote,
		RunE: f.withStoredClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			cond, err := scm.ParseCondition(flgs.Condition)
			if err != nil {
				return err
			}
			status, err := scm.ParseShipmentStatus(flgs.Status)
			if err != nil {
				return err
			}
			in := &scm.CreateShipmentInput{
				BatchID:            flgs.BatchID,
				CropType:           flgs.CropType,
				QuantityKg:         flgs.QuantityKg,
				Condition:          cond,
				Origin:             flgs.Origin,
				Destination:        flgs.Destination,
				CurrentStatus:      status,
				ETA:                flgs.ETA,
				BuyerID:            flgs.BuyerID,
				FarmerID:           flgs.FarmerID,
				LogisticsPartnerID: flgs.LogisticsPartnerID,
			}
			if flgs.Location != "" {
				loc, err := parseLocation(flgs.Location)
				if err != nil {
					return err
				}
				in.CurrentLocation = &loc
			}
			out, err := client.CreateShipment(ctx, in)
			if err != nil {
				return err
			}
			printMessageWithData(cmd.OutOrStdout(), "", out)
			return nil
		}),
	}
	stringFlag(c, &flgs.BatchID, flagMap.BatchID)
	stringFlag(c, &flgs.CropType, flagMap.CropType)
	c.Flags().Float64Var(&flgs.QuantityKg, flagMap.QuantityKg.Name, flagMap.QuantityKg.Value, flagMap.QuantityKg.Usage)
	stringFlag(c, &flgs.Condition, flagMap.Condition)
	stringFlag(c, &flgs.Origin, flagMap.Origin)
	stringFlag(c, &flgs.Destination, flagMap.Destination)
	stringFlag(c, &flgs.Status, flagMap.Status)
	stringFlag(c, &flgs.Location, flagMap.Location)
	stringFlag(c, &flgs.ETA, flagMap.ETA)
	stringFlag(c, &flgs.BuyerID, flagMap.BuyerID)
	stringFlag(c, &flgs.FarmerID, flagMap.FarmerID)
	stringFlag(c, &flgs.LogisticsPartnerID, flagMap.LogisticsPartnerID)
	return c
}

func (f CommandFactory) createUpdateCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "update",
		Short: "Update the given fields of a shipment",
		Long: `Update the given fields of a shipment. Flags that are not passed leave the stored value untouched.

` + memoryBackendNote,
		RunE: f.withStoredClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			in, err := updateInputFromFlags(cmd, flgs)
			if err != nil {
				return err
			}
			return updateShipment(ctx, cmd, client, in)
		}),
	}
	stringFlag(c, &flgs.ID, flagMap.ID)
	c.Flags().Float64Var(&flgs.QuantityKg, flagMap.QuantityKg.Name, flagMap.QuantityKg.Value, flagMap.QuantityKg.Usage)
	stringFlag(c, &flgs.Condition, flagMap.Condition)
	stringFlag(c, &flgs.Status, flagMap.Status)
	stringFlag(c, &flgs.Location, flagMap.Location)
	stringFlag(c, &flgs.ETA, flagMap.ETA)
	return c
}

func updateInputFromFlags(cmd *cobra.Command, flgs *Flags) (*scm.UpdateShipmentInput, error) {
	in := &scm.UpdateShipmentInput{ID: flgs.ID}
	changed := cmd.Flags().Changed
	if changed(flagMap.QuantityKg.Name) {
		q := flgs.QuantityKg
		in.QuantityKg = &q
	}
	if changed(flagMap.Condition.Name) {
		cond, err := scm.ParseCondition(flgs.Condition)
		if err != nil {
			return nil, err
		}
		in.Condition = &cond
	}
	if changed(flagMap.Status.Name) {
		st, err := scm.ParseShipmentStatus(flgs.Status)
		if err != nil {
			return nil, err
		}
		in.CurrentStatus = &st
	}
	if changed(flagMap.Location.Name) {
		loc, err := parseLocation(flgs.Location)
		if err != nil {
			return nil, err
		}
		in.CurrentLocation = &loc
	}
	if changed(flagMap.ETA.Name) {
		eta := flgs.ETA
		in.ETA = &eta
	}
	return in, nil
}

func (f CommandFactory) createCheckpointCommand(flgs *Flags) *cobra.Command {
	c := &cobra.Command{
		Use:   "checkpoint",
		Short: "Append a checkpoint to a shipment",
		Long: `Append a checkpoint to a shipment and move its current location there.

` + memoryBackendNote,
		RunE: f.withStoredClient(flgs, func(ctx context.Context, cmd *cobra.Command, client scm.Client) error {
			loc, err := parseLocation(flgs.Location)
			if err != nil {
				return err
			}
			role, err := f.checkpointRole(flgs)
			if err != nil {
				return err
			}
			return updateShipment(ctx, cmd, client, &scm.UpdateShipmentInput{
				ID:              flgs.ID,
				CurrentLocation: &loc,
				AddCheckpoint: &scm.CheckpointInput{
					Name:        flgs.CheckpointName,
					Location:    loc,
					HandlerRole: role,
					Notes:       flgs.Notes,
				},
			})
		}),
	}
	stringFlag(c, &flgs.ID, flagMap.ID)
	stringFlag(c, &flgs.CheckpointName, flagMap.CheckpointName)
	stringFlag(c, &flgs.Location, flagMap.Location)
	stringFlag(c, &flgs.HandlerRole, flagMap.HandlerRole)
	stringFlag(c, &flgs.Notes, flagMap.Notes)
	return c
}

// checkpointRole prefers --handler-role and falls back to the logged-in user.
func (f CommandFactory) checkpointRole(flgs *Flags) (scm.HandlerRole, error) {
	if flgs.HandlerRole != "" {
		return scm.ParseHandlerRole(flgs.HandlerRole)
	}
	session, err := f.createSession(flgs)
	if err != nil {
		return "", err
	}
	u, err := session.Current()
	if errors.Is(err, auth.ErrNotLoggedIn) {
		return "", fmt.Errorf("pass --%s or log in first: %w", flagMap.HandlerRole.Name, err)
	}
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func updateShipment(ctx context.Context, cmd *cobra.Command, client scm.Client, in *scm.UpdateShipmentInput) error {
	out, err := client.UpdateShipment(ctx, in)
	if err != nil {
		return errorWithID(err, in.ID)
	}
	if out.Shipment == nil {
		return errorShipmentNotFound(in.ID)
	}
	printMessageWithData(cmd.OutOrStdout(), "", out)
	return nil
}

// assignOwner fills the party reference that matches the user's role.
func assignOwner(in *scm.CreateShipmentInput, u *auth.User) {
	switch u.Role {
	case scm.RoleFarmer:
		in.FarmerID = u.ID
	case scm.RoleLogistics:
		in.LogisticsPartnerID = u.ID
	case scm.RoleBuyer:
		in.BuyerID = u.ID
	}
}
