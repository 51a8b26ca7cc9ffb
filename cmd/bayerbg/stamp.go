package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"bayerbg/pkg/bayer"
)

var stampOpts struct {
	Size             []int
	IgnoreSuperpixel bool
}

var stampCmd = &cobra.Command{
	Use:   "stamp <x> <y>",
	Short: "Compute a superpixel-aligned stamp slice",
	Long: `Compute the pixel bounds of a stamp around the given (x, y) position,
aligned so the stamp's top-left corner sits on the superpixel origin.
Coordinates may be fractional.`,
	Args: cobra.ExactArgs(2),
	RunE: runStamp,
}

var colorCmd = &cobra.Command{
	Use:   "color <x> <y>",
	Short: "Classify the Bayer color of a pixel position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		x, y, err := parsePosition(args)
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", bayer.PixelColor(x, y))
		return nil
	},
}

func init() {
	stampCmd.Flags().IntSliceVar(&stampOpts.Size, "size", []int{14, 14}, "Stamp size as width,height")
	stampCmd.Flags().BoolVar(&stampOpts.IgnoreSuperpixel, "ignore-superpixel", false, "Skip the stamp size validation")
	rootCmd.AddCommand(stampCmd)
	rootCmd.AddCommand(colorCmd)
}

func runStamp(cmd *cobra.Command, args []string) error {
	x, y, err := parsePosition(args)
	if err != nil {
		return err
	}
	if len(stampOpts.Size) != 2 {
		return fmt.Errorf("size needs exactly two values, got %v", stampOpts.Size)
	}
	size := bayer.StampSize{Width: stampOpts.Size[0], Height: stampOpts.Size[1]}
	box, err := bayer.StampSlice(x, y, size, stampOpts.IgnoreSuperpixel)
	if err != nil {
		return err
	}
	fmt.Printf("color: %s\n", bayer.PixelColor(x, y))
	fmt.Printf("rows:  [%d, %d)\n", box.YMin, box.YMax)
	fmt.Printf("cols:  [%d, %d)\n", box.XMin, box.XMax)
	return nil
}

func parsePosition(args []string) (float64, float64, error) {
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid x position %q", args[0])
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid y position %q", args[1])
	}
	return x, y, nil
}
