/* -*- coding: utf-8 -*-
* ------------------------------------------------------------------------------
*
*   Copyright 2018-2021 Fetch.AI Limited
*
*   Licensed under the Apache License, Version 2.0 (the "License");
*   you may not use this file except in compliance with the License.
*   You may obtain a copy of the License at
*
*       http://www.apache.org/licenses/LICENSE-2.0
*
*   Unless required by applicable law or agreed to in writing, software
*   distributed under the License is distributed on an "AS IS" BASIS,
*   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
*   See the License for the specific language governing permissions and
*   limitations under the License.
*
* ------------------------------------------------------------------------------
 */

// dialogue-agent runs a minimal two-party weather-station negotiation over
// the dialogue engine, in-process: a buyer opens a cfp, the seller
// proposes a price, the buyer accepts, the seller ends the dialogue.
// There is no real transport here (out of scope for the engine); each
// side's outgoing message is handed directly to the other side's
// Dialogues.Update, the way an enclosing agent runtime would after
// decoding an envelope off the wire.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/fetchai/agents-aea-sub004/config"
	"github.com/fetchai/agents-aea-sub004/protocols"
	"github.com/fetchai/agents-aea-sub004/telemetry"
)

const (
	performativeCfp     protocols.Performative = "cfp"
	performativePropose protocols.Performative = "propose"
	performativeAccept  protocols.Performative = "accept"
	performativeDecline protocols.Performative = "decline"
	performativeEnd     protocols.Performative = "end"

	sellerAddress protocols.Address = "fetch1seller00000000000000000000000000000000"
)

func weatherStationRules() (protocols.Rules, error) {
	return protocols.NewRules(
		[]protocols.Performative{performativeCfp},
		[]protocols.Performative{performativeEnd, performativeDecline},
		map[protocols.Performative][]protocols.Performative{
			performativeCfp:     {performativePropose, performativeDecline},
			performativePropose: {performativeAccept, performativeDecline},
			performativeAccept:  {performativeEnd},
		},
	)
}

// role1ForBuyer gives the buyer's coordinator Role1 in every dialogue,
// whatever the first message; role2ForSeller gives the seller's
// coordinator Role2.
func role1ForBuyer(protocols.ProtocolMessageInterface, protocols.Address) protocols.Role {
	return protocols.Role1
}

func role2ForSeller(protocols.ProtocolMessageInterface, protocols.Address) protocols.Role {
	return protocols.Role2
}

func main() {
	if len(os.Args) != 2 {
		log.Print("Usage: dialogue-agent ENV_FILE")
		os.Exit(1)
	}

	cfg := config.EngineConfig{}
	if err := cfg.InitFromEnv(); err != nil {
		log.Fatal("Failed to initialise config: ", err)
	}

	shutdownTracing, err := telemetry.InitTracerProvider()
	if err != nil {
		log.Fatal("Failed to initialise tracing: ", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	metrics := telemetry.NewMetrics()
	http.Handle("/metrics", telemetry.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsListenAddr}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server stopped: %v", err)
		}
	}()

	rules, err := weatherStationRules()
	if err != nil {
		log.Fatal("Failed to build dialogue rules: ", err)
	}

	buyerAddress := protocols.Address(cfg.SelfAddress)
	buyer := protocols.NewDialogues(buyerAddress, role1ForBuyer, cfg.KeepTerminalState, cfg.DialogueName, rules)
	seller := protocols.NewDialogues(sellerAddress, role2ForSeller, cfg.KeepTerminalState, cfg.DialogueName, rules)

	buyer.AddObserver(telemetry.NewTracer(cfg.DialogueName))
	buyer.AddObserver(metrics)
	seller.AddObserver(telemetry.NewTracer(cfg.DialogueName))
	seller.AddObserver(metrics)

	runWeatherStationNegotiation(buyer, seller)

	log.Print("Agent started; press Ctrl+C to stop")
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c

	if err := metricsServer.Shutdown(context.Background()); err != nil {
		log.Printf("failed to shut down metrics server: %v", err)
	}
	log.Print("Agent stopped")
}

// runWeatherStationNegotiation plays out one full happy-path negotiation,
// logging every hop with a correlation id.
func runWeatherStationNegotiation(buyer, seller *protocols.Dialogues) {
	correlation := uuid.NewString()

	cfpMessage, buyerDialogue, err := buyer.Create(sellerAddress, performativeCfp, map[string]protocols.Value{
		"query": protocols.StringValue("temperature, humidity"),
	})
	if err != nil {
		log.Printf("[%s] buyer failed to open dialogue: %v", correlation, err)
		return
	}
	log.Printf("[%s] buyer -> seller: %s", correlation, cfpMessage.Performative())

	sellerDialogue, err := seller.Update(cfpMessage)
	if err != nil || sellerDialogue == nil {
		log.Printf("[%s] seller rejected cfp: %v", correlation, err)
		return
	}

	proposeMessage, err := sellerDialogue.Reply(performativePropose, cfpMessage, nil, map[string]protocols.Value{
		"price": protocols.IntValue(5),
	})
	if err != nil {
		log.Printf("[%s] seller failed to propose: %v", correlation, err)
		return
	}
	log.Printf("[%s] seller -> buyer: %s", correlation, proposeMessage.Performative())

	if _, err := buyer.Update(proposeMessage); err != nil {
		log.Printf("[%s] buyer rejected propose: %v", correlation, err)
		return
	}

	acceptMessage, err := buyerDialogue.Reply(performativeAccept, proposeMessage, nil, nil)
	if err != nil {
		log.Printf("[%s] buyer failed to accept: %v", correlation, err)
		return
	}
	log.Printf("[%s] buyer -> seller: %s", correlation, acceptMessage.Performative())

	if _, err := seller.Update(acceptMessage); err != nil {
		log.Printf("[%s] seller rejected accept: %v", correlation, err)
		return
	}

	endMessage, err := sellerDialogue.Reply(performativeEnd, acceptMessage, nil, nil)
	if err != nil {
		log.Printf("[%s] seller failed to end dialogue: %v", correlation, err)
		return
	}
	log.Printf("[%s] seller -> buyer: %s", correlation, endMessage.Performative())

	if _, err := buyer.Update(endMessage); err != nil {
		log.Printf("[%s] buyer rejected end: %v", correlation, err)
		return
	}

	log.Printf("[%s] negotiation complete: terminal=%v", correlation, buyerDialogue.IsTerminal())
}
