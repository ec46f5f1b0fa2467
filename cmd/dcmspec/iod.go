package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcmspec/dcmspec/dcmconfig"
	"github.com/dcmspec/dcmspec/dochandler"
	"github.com/dcmspec/dcmspec/iodbuilder"
	"github.com/dcmspec/dcmspec/registry"
	"github.com/dcmspec/dcmspec/specmodel"
)

func newIodCmd(cfg *runConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "iod <id>",
		Short: "Build one IOD's expanded specification model",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runIod(cfg, args[0])
		},
	}
}

func runIod(cfg *runConfig, id string) error {
	logger := cfg.logger()
	conf := dcmconfig.Load(cfg.configPath, logger)

	spec, ok := conf.Iods[id]
	if !ok {
		return fmt.Errorf("dcmspec: no iod named %q in config", id)
	}

	handler := dochandler.NewXHTMLHandler(conf.Params.CacheDir)
	builder := iodbuilder.New(handler, conf.Params.CacheDir, registry.New(), logger)

	model, err := builder.BuildFromURL(context.Background(), iodbuilder.Options{
		URL:             spec.URL,
		CacheFileName:   spec.CacheFileName,
		IodTableID:      spec.IodTableID,
		ForceDownload:   cfg.forceDownload,
		IodColumnToAttr: specmodel.NewColumnMap(spec.IodColumnToAttr),
		IodNameAttr:     spec.IodNameAttr,
		Module: iodbuilder.ModuleOptions{
			ColumnToAttr: specmodel.NewColumnMap(spec.Module.ColumnToAttr),
			NameAttr:     spec.Module.NameAttr,
			IncludeDepth: cfg.includeDepthPtr(),
		},
	})
	if err != nil {
		return err
	}

	return printModel(model, cfg.printMode)
}
