package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dcmspec/dcmspec/dcmconfig"
	"github.com/dcmspec/dcmspec/dochandler"
	"github.com/dcmspec/dcmspec/specfactory"
	"github.com/dcmspec/dcmspec/specmerger"
	"github.com/dcmspec/dcmspec/specmodel"
)

func newTableCmd(cfg *runConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "table <id>",
		Short: "Build one table's specification model",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runTable(cfg, args[0])
		},
	}
}

func runTable(cfg *runConfig, id string) error {
	logger := cfg.logger()
	conf := dcmconfig.Load(cfg.configPath, logger)

	spec, ok := conf.Tables[id]
	if !ok {
		return fmt.Errorf("dcmspec: no table named %q in config", id)
	}

	handler := dochandler.NewXHTMLHandler(conf.Params.CacheDir)
	factory := specfactory.New(handler, conf.Params.CacheDir, logger)

	model, err := factory.CreateModel(context.Background(), specfactory.Options{
		URL:           spec.URL,
		CacheFileName: spec.CacheFileName,
		TableID:       spec.TableID,
		ForceDownload: cfg.forceDownload,
		ForceParse:    cfg.forceParse,
		ColumnToAttr:  specmodel.NewColumnMap(spec.ColumnToAttr),
		NameAttr:      spec.NameAttr,
		IncludeDepth:  cfg.includeDepthPtr(),
	})
	if err != nil {
		return err
	}

	if len(cfg.addPart6) > 0 {
		model, err = addPart6Columns(conf, factory, model, cfg)
		if err != nil {
			return err
		}
	}

	return printModel(model, cfg.printMode)
}

// addPart6Columns merges the requested PS3.6 data-element columns (VR, VM,
// Keyword, Status) into model, matching rows by their "elem_tag" attribute.
func addPart6Columns(conf *dcmconfig.Config, factory *specfactory.Factory, model *specmodel.SpecModel, cfg *runConfig) (*specmodel.SpecModel, error) {
	part6Spec, ok := conf.Part6["PS3.6"]
	if !ok {
		return nil, fmt.Errorf("dcmspec: --add-part6 requested but no part6.PS3.6 entry in config")
	}

	part6Model, err := factory.CreateModel(context.Background(), specfactory.Options{
		URL:           part6Spec.URL,
		CacheFileName: part6Spec.CacheFileName,
		TableID:       part6Spec.TableID,
		ForceDownload: cfg.forceDownload,
		ColumnToAttr:  specmodel.NewColumnMap(part6Spec.ColumnToAttr),
		NameAttr:      part6Spec.NameAttr,
	})
	if err != nil {
		return nil, err
	}

	mg := specmerger.New(conf.Logger)
	merged, err := mg.MergeMany(specmerger.Request{
		Models:         []*specmodel.SpecModel{model, part6Model},
		Method:         specmerger.MatchingNode,
		MatchBy:        specmodel.MatchByAttribute,
		AttributeNames: []string{"elem_tag"},
		MergeAttrsList: [][]string{cfg.addPart6},
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}
