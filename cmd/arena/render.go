package main

import (
	"fmt"
	"io"

	"okinoko-arena/contract"
	"okinoko-arena/game"
)

func printState(w io.Writer, st game.State, gateway string) {
	fmt.Fprintf(w, "account: %s\n", st.Account)
	if st.NetworkWarning != nil {
		fmt.Fprintf(w, "warning: %v\n", st.NetworkWarning)
	}
	if b := st.Boss; b != nil {
		fmt.Fprintf(w, "boss:    %s  %s  %s\n", b.Name, hpBar(b.HP, b.MaxHP), b.ImageURL(gateway))
	}
	if av := st.Avatar; av != nil {
		fmt.Fprintf(w, "avatar:  %s  %s  dmg %d  %s\n", av.Name, hpBar(av.HP, av.MaxHP), av.AttackDamage, av.ImageURL(gateway))
	} else {
		fmt.Fprintln(w, "avatar:  none, mint one with `arena mint <index>`")
	}
	if st.Mint != game.MintIdle || st.Attack != game.AttackIdle {
		fmt.Fprintf(w, "mint: %s  attack: %s\n", st.Mint, st.Attack)
	}
	if st.Toast && st.Boss != nil && st.Avatar != nil {
		fmt.Fprintf(w, "💥 %s was hit for %d!\n", st.Boss.Name, st.Avatar.AttackDamage)
	}
	if st.Err != nil {
		fmt.Fprintf(w, "error: %v\n", st.Err)
	}
}

func printTemplates(w io.Writer, templates []contract.CharacterTemplate, gateway string) {
	for _, t := range templates {
		fmt.Fprintf(w, "[%d] %s  %s  dmg %d  %s\n", t.Index, t.Name, hpBar(t.HP, t.MaxHP), t.AttackDamage, t.ImageURL(gateway))
	}
}

func hpBar(hp, max int64) string {
	return fmt.Sprintf("%d / %d", hp, max)
}
