package web

import "github.com/tourvia/tourchat/pkg/config"

// pageHTML renders the page shell: persistent header, hero body, footer, and
// the floating widget mount. Static composition only.
func pageHTML(cfg config.WebConfig) string {
	return `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Tourvia - Tours &amp; Experiences</title>
<link rel="preconnect" href="https://fonts.googleapis.com">
<link rel="preconnect" href="https://fonts.gstatic.com" crossorigin>
<link href="https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600&display=swap" rel="stylesheet">
<style>
:root{
  --bg:#f7f6f2;--surface:#ffffff;--border:#e3e0d8;
  --accent:#0e7a5f;--accent-hover:#0b6650;--accent-soft:rgba(14,122,95,.12);
  --text:#21262b;--text-muted:#6e7681;
  --user-bg:linear-gradient(135deg,#0e7a5f,#19a07e);--bot-bg:#f0efe9;
  --radius:12px;
}
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:'Inter',system-ui,-apple-system,sans-serif;background:var(--bg);color:var(--text);-webkit-font-smoothing:antialiased}
header.site{padding:16px 32px;background:var(--surface);border-bottom:1px solid var(--border);display:flex;align-items:center;gap:12px;position:sticky;top:0}
header.site img{width:36px;height:36px;border-radius:9px}
header.site h1{font-size:18px;font-weight:600}
main.hero{max-width:760px;margin:0 auto;padding:64px 24px;text-align:center}
main.hero h2{font-size:32px;font-weight:600;margin-bottom:12px}
main.hero p{font-size:16px;color:var(--text-muted);line-height:1.7}
footer.site{padding:24px 32px;border-top:1px solid var(--border);font-size:13px;color:var(--text-muted);text-align:center}
#widget{position:fixed;bottom:24px;right:24px;z-index:50;font-size:14px}
#launcher{width:56px;height:56px;border-radius:50%;border:none;cursor:pointer;background:var(--user-bg);color:#fff;display:flex;align-items:center;justify-content:center;box-shadow:0 6px 20px rgba(14,122,95,.35)}
#launcher svg{width:26px;height:26px}
#panel{display:none;width:360px;height:520px;background:var(--surface);border:1px solid var(--border);border-radius:16px;flex-direction:column;overflow:hidden;box-shadow:0 12px 40px rgba(0,0,0,.18)}
#widget.expanded #panel{display:flex}
#widget.expanded #launcher{display:none}
#panel-header{padding:14px 16px;background:var(--user-bg);color:#fff;display:flex;align-items:center;gap:10px;cursor:pointer}
#panel-header img{width:28px;height:28px;border-radius:7px;background:#fff}
#panel-header .name{font-weight:600}
#panel-header .sub{font-size:11px;opacity:.8}
#messages{flex:1;overflow-y:auto;padding:16px;display:flex;flex-direction:column;gap:10px}
.msg{max-width:82%;padding:10px 14px;border-radius:var(--radius);line-height:1.55;word-wrap:break-word}
.msg.user{align-self:flex-end;background:var(--user-bg);color:#fff;border-bottom-right-radius:4px}
.msg.bot{align-self:flex-start;background:var(--bot-bg);border-bottom-left-radius:4px}
.msg.bot.fade{animation:fadeIn .25s ease-out}
.msg a{color:var(--accent);font-weight:500}
.msg .time{display:block;font-size:10px;color:var(--text-muted);margin-top:4px}
.msg.user .time{color:rgba(255,255,255,.6)}
.fb{display:flex;gap:6px;margin-top:6px}
.fb button{border:1px solid var(--border);background:var(--surface);border-radius:6px;padding:2px 8px;cursor:pointer;font-size:12px}
.fb button:hover{background:var(--accent-soft)}
.fb button.picked{background:var(--accent-soft);border-color:var(--accent)}
#typing{min-height:22px;padding:0 16px;font-size:12px;color:var(--text-muted)}
#typing span{display:inline-block;width:5px;height:5px;margin-right:3px;background:var(--accent);border-radius:50%;animation:bounce .6s infinite alternate}
#typing span:nth-child(2){animation-delay:.15s}
#typing span:nth-child(3){animation-delay:.3s}
#input-row{display:flex;gap:8px;padding:12px;border-top:1px solid var(--border)}
#input{flex:1;padding:10px 12px;border:1px solid var(--border);border-radius:9px;font-size:14px;font-family:inherit;outline:none}
#input:focus{border-color:var(--accent)}
#send{width:40px;border:none;border-radius:9px;background:var(--accent);color:#fff;cursor:pointer}
#send:hover{background:var(--accent-hover)}
#send:disabled{opacity:.35;cursor:not-allowed}
#fallback{display:none;padding:32px 20px;text-align:center;color:var(--text-muted)}
#fallback button{margin-top:12px;padding:8px 16px;border:1px solid var(--border);border-radius:8px;background:var(--surface);cursor:pointer}
@keyframes fadeIn{from{opacity:0;transform:translateY(6px)}to{opacity:1;transform:none}}
@keyframes bounce{from{transform:translateY(0)}to{transform:translateY(-3px)}}
@media(max-width:420px){#panel{width:calc(100vw - 32px);height:70vh}}
</style>
</head>
<body>
<header class="site">
  <img src="` + cfg.LogoURL + `" alt="Tourvia">
  <h1>Tourvia</h1>
</header>
<main class="hero">
  <h2>Find your next adventure</h2>
  <p>Day trips, guided tours and group experiences across the islands.
     Questions about departures, meeting points or group bookings?
     Our travel assistant in the corner is happy to help.</p>
</main>
<footer class="site">&copy; Tourvia. All rights reserved.</footer>

<div id="widget">
  <button id="launcher" aria-label="Open chat"><svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="2" stroke-linecap="round" stroke-linejoin="round"><path d="M21 15a2 2 0 01-2 2H7l-4 4V5a2 2 0 012-2h14a2 2 0 012 2z"/></svg></button>
  <div id="panel">
    <div id="panel-header">
      <img src="` + cfg.LogoURL + `" alt="">
      <div><div class="name">Tourvia Assistant</div><div class="sub">Typically replies in seconds</div></div>
    </div>
    <div id="messages"></div>
    <div id="typing"></div>
    <div id="input-row">
      <input id="input" placeholder="Ask about tours..." aria-label="Chat message input">
      <button id="send" aria-label="Send">&#10148;</button>
    </div>
    <div id="fallback">
      Something went wrong in the chat.
      <button onclick="location.reload()">Reload page</button>
    </div>
  </div>
</div>

<script>
const widgetEl=document.getElementById("widget"),
      msgsEl=document.getElementById("messages"),
      typingEl=document.getElementById("typing"),
      input=document.getElementById("input"),
      btn=document.getElementById("send"),
      fallback=document.getElementById("fallback");
let busy=false;

function render(s){
  try{
    widgetEl.className=s.state==="expanded"?"expanded":"";
    busy=s.typing;btn.disabled=busy;input.disabled=busy;
    typingEl.innerHTML=s.typing?"<span></span><span></span><span></span> Assistant is typing":"";
    msgsEl.innerHTML="";
    for(const m of s.messages){
      const div=document.createElement("div");
      div.className="msg "+m.role+(m.fade_in&&!m.complete?" fade":"");
      div.innerHTML=m.html+'<span class="time">'+m.time+'</span>';
      if(m.feedback_eligible){
        const fb=document.createElement("div");fb.className="fb";
        for(const p of ["positive","negative"]){
          const b=document.createElement("button");
          b.textContent=p==="positive"?"👍":"👎";
          if(m.feedback===p)b.className="picked";
          b.onclick=()=>fetch("/chat/feedback",{method:"POST",headers:{"Content-Type":"application/json"},body:JSON.stringify({message_id:m.id,polarity:p})});
          fb.appendChild(b);
        }
        div.appendChild(fb);
      }
      msgsEl.appendChild(div);
    }
    setTimeout(()=>{msgsEl.scrollTop=msgsEl.scrollHeight},50);
  }catch(e){
    msgsEl.style.display="none";typingEl.style.display="none";
    document.getElementById("input-row").style.display="none";
    fallback.style.display="block";
  }
}

function connect(){
  const ws=new WebSocket((location.protocol==="https:"?"wss://":"ws://")+location.host+"/chat/ws");
  ws.onmessage=e=>render(JSON.parse(e.data));
  ws.onclose=()=>setTimeout(connect,2000);
}
connect();

document.getElementById("panel-header").onclick=toggle;
document.getElementById("launcher").onclick=toggle;
function toggle(){
  fetch("/chat/toggle",{method:"POST",headers:{"Content-Type":"application/json"},body:JSON.stringify({width:window.innerWidth})});
}

async function send(){
  const m=input.value.trim();if(!m||busy)return;
  input.value="";
  await fetch("/chat/send",{method:"POST",headers:{"Content-Type":"application/json"},body:JSON.stringify({message:m,width:window.innerWidth})});
}
btn.onclick=send;
input.onkeydown=e=>{if(e.key==="Enter")send()};
</script>
</body>
</html>`
}
